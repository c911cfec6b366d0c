package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jiaofangliang/datahub/internal/compliance"
	"github.com/jiaofangliang/datahub/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// serviceName must match the name the server registers.
const serviceName = "datahub.compliance.v1.ComplianceService"

// GRPCClient implements Client using the gRPC transport. Requests and
// responses travel as google.protobuf.Struct messages.
type GRPCClient struct {
	conn  *grpc.ClientConn
	token string
}

var _ Client = (*GRPCClient)(nil)

// NewGRPCClient connects to the given gRPC address and returns a client.
func NewGRPCClient(addr, token string) (*GRPCClient, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("grpc dial: %w", err)
	}
	return NewGRPCClientFromConn(conn, token), nil
}

// NewGRPCClientFromConn wraps an existing connection. Close closes conn.
func NewGRPCClientFromConn(conn *grpc.ClientConn, token string) *GRPCClient {
	return &GRPCClient{conn: conn, token: token}
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}

// invoke sends req as a Struct to the named method and decodes the reply into result.
func (c *GRPCClient) invoke(ctx context.Context, method string, req any, result any) error {
	in := &structpb.Struct{}
	if req != nil {
		data, err := json.Marshal(req)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		if string(data) != "null" {
			if err := protojson.Unmarshal(data, in); err != nil {
				return fmt.Errorf("converting request: %w", err)
			}
		}
	}

	if c.token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+c.token)
	}

	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, "/"+serviceName+"/"+method, in, out); err != nil {
		return err
	}
	if result == nil {
		return nil
	}
	data, err := protojson.Marshal(out)
	if err != nil {
		return fmt.Errorf("converting response: %w", err)
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

type refRequest struct {
	ID    string `json:"id"`
	Actor string `json:"actor,omitempty"`
}

// --- Lookup tables ---

func (c *GRPCClient) Classifications(ctx context.Context) ([]compliance.Option, error) {
	var resp struct {
		Options []compliance.Option `json:"options"`
	}
	if err := c.invoke(ctx, "GetClassifications", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Options, nil
}

func (c *GRPCClient) ClassificationDefaults(ctx context.Context) (*ClassificationDefaults, error) {
	var resp ClassificationDefaults
	if err := c.invoke(ctx, "GetClassificationDefaults", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) LogicalTypes(ctx context.Context, category string) ([]compliance.Option, error) {
	var resp struct {
		Options []compliance.Option `json:"options"`
	}
	if err := c.invoke(ctx, "GetLogicalTypes", map[string]string{"category": category}, &resp); err != nil {
		return nil, err
	}
	return resp.Options, nil
}

func (c *GRPCClient) IdentifierTypes(ctx context.Context) ([]IdentifierType, error) {
	var resp struct {
		IdentifierTypes []IdentifierType `json:"identifier_types"`
	}
	if err := c.invoke(ctx, "ListIdentifierTypes", nil, &resp); err != nil {
		return nil, err
	}
	return resp.IdentifierTypes, nil
}

func (c *GRPCClient) IdentifierType(ctx context.Context, value string) (*IdentifierType, error) {
	var resp IdentifierType
	if err := c.invoke(ctx, "GetIdentifierType", map[string]string{"type": value}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Datasets ---

func (c *GRPCClient) CreateDataset(ctx context.Context, req *CreateDatasetRequest) (*model.Dataset, error) {
	var ds model.Dataset
	if err := c.invoke(ctx, "CreateDataset", req, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (c *GRPCClient) ListDatasets(ctx context.Context, req *ListDatasetsRequest) (*ListDatasetsResponse, error) {
	var resp ListDatasetsResponse
	if err := c.invoke(ctx, "ListDatasets", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *GRPCClient) GetDataset(ctx context.Context, ref string) (*model.Dataset, error) {
	var ds model.Dataset
	if err := c.invoke(ctx, "GetDataset", refRequest{ID: ref}, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

func (c *GRPCClient) DeleteDataset(ctx context.Context, ref, actor string) error {
	return c.invoke(ctx, "DeleteDataset", refRequest{ID: ref, Actor: actor}, nil)
}

func (c *GRPCClient) SetSchema(ctx context.Context, ref string, schema *model.SchemaDefinition, updatedBy string) (*model.Dataset, error) {
	req := struct {
		ID        string                  `json:"id"`
		Schema    *model.SchemaDefinition `json:"schema"`
		UpdatedBy string                  `json:"updated_by,omitempty"`
	}{ref, schema, updatedBy}
	var ds model.Dataset
	if err := c.invoke(ctx, "SetSchema", req, &ds); err != nil {
		return nil, err
	}
	return &ds, nil
}

// --- Compliance ---

func (c *GRPCClient) GetCompliance(ctx context.Context, ref string) (*model.ComplianceInfo, error) {
	var info model.ComplianceInfo
	if err := c.invoke(ctx, "GetCompliance", refRequest{ID: ref}, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *GRPCClient) SetCompliance(ctx context.Context, ref string, req *SetComplianceRequest) (*model.ComplianceInfo, error) {
	body := struct {
		ID string `json:"id"`
		*SetComplianceRequest
	}{ref, req}
	var info model.ComplianceInfo
	if err := c.invoke(ctx, "SetCompliance", body, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// --- Events ---

func (c *GRPCClient) GetEvents(ctx context.Context, ref string) ([]*model.Event, error) {
	var resp struct {
		Events []*model.Event `json:"events"`
	}
	if err := c.invoke(ctx, "GetEvents", refRequest{ID: ref}, &resp); err != nil {
		return nil, err
	}
	return resp.Events, nil
}

// --- Health ---

func (c *GRPCClient) Health(ctx context.Context) (string, error) {
	var resp struct {
		Status string `json:"status"`
	}
	if err := c.invoke(ctx, "Health", nil, &resp); err != nil {
		return "", err
	}
	return resp.Status, nil
}
