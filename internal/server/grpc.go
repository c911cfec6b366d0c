package server

import (
	"context"

	"github.com/jiaofangliang/datahub/internal/model"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
	"google.golang.org/protobuf/types/known/structpb"
)

// ComplianceServiceName is the fully-qualified gRPC service name.
const ComplianceServiceName = "datahub.compliance.v1.ComplianceService"

// HealthMethod is the full method name of the unauthenticated health check.
const HealthMethod = "/" + ComplianceServiceName + "/Health"

// ComplianceServiceServer is the gRPC surface of DatasetServer. Every method
// exchanges google.protobuf.Struct messages holding the same JSON documents
// as the HTTP API.
type ComplianceServiceServer interface {
	Health(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetClassifications(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetClassificationDefaults(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetLogicalTypes(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListIdentifierTypes(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetIdentifierType(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateDataset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListDatasets(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetDataset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteDataset(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetSchema(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCompliance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetCompliance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var _ ComplianceServiceServer = (*DatasetServer)(nil)

type unaryMethod func(ComplianceServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodDesc(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ComplianceServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			svc := srv.(ComplianceServiceServer)
			if interceptor == nil {
				return call(svc, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(svc, ctx, req.(*structpb.Struct))
			})
		},
	}
}

// ComplianceServiceDesc describes the service for grpc.Server.RegisterService.
var ComplianceServiceDesc = grpc.ServiceDesc{
	ServiceName: ComplianceServiceName,
	HandlerType: (*ComplianceServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc("Health", ComplianceServiceServer.Health),
		methodDesc("GetClassifications", ComplianceServiceServer.GetClassifications),
		methodDesc("GetClassificationDefaults", ComplianceServiceServer.GetClassificationDefaults),
		methodDesc("GetLogicalTypes", ComplianceServiceServer.GetLogicalTypes),
		methodDesc("ListIdentifierTypes", ComplianceServiceServer.ListIdentifierTypes),
		methodDesc("GetIdentifierType", ComplianceServiceServer.GetIdentifierType),
		methodDesc("CreateDataset", ComplianceServiceServer.CreateDataset),
		methodDesc("ListDatasets", ComplianceServiceServer.ListDatasets),
		methodDesc("GetDataset", ComplianceServiceServer.GetDataset),
		methodDesc("DeleteDataset", ComplianceServiceServer.DeleteDataset),
		methodDesc("SetSchema", ComplianceServiceServer.SetSchema),
		methodDesc("GetCompliance", ComplianceServiceServer.GetCompliance),
		methodDesc("SetCompliance", ComplianceServiceServer.SetCompliance),
		methodDesc("GetEvents", ComplianceServiceServer.GetEvents),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "datahub/compliance/v1/compliance.proto",
}

// NewGRPCServer creates a gRPC server with standard interceptors, registers
// the ComplianceService and reflection, and returns the server ready to serve.
// Extra interceptors (such as AuthInterceptor) run after recovery and logging.
func NewGRPCServer(datasetServer *DatasetServer, extra ...grpc.UnaryServerInterceptor) *grpc.Server {
	interceptors := append([]grpc.UnaryServerInterceptor{
		RecoveryInterceptor,
		LoggingInterceptor,
	}, extra...)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptors...))

	srv.RegisterService(&ComplianceServiceDesc, datasetServer)
	reflection.Register(srv)

	return srv
}

// Health returns the service health status.
func (s *DatasetServer) Health(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return encodeStruct(map[string]string{"status": "ok"})
}

// GetClassifications returns the security classification dropdown options.
func (s *DatasetServer) GetClassifications(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return encodeStruct(map[string]any{"options": s.tables.SecurityClassificationDropdownOptions()})
}

// GetClassificationDefaults returns the default classification maps.
func (s *DatasetServer) GetClassificationDefaults(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return encodeStruct(s.classificationDefaults())
}

// GetLogicalTypes returns the value/label list for {"category": "id"|"generic"}.
func (s *DatasetServer) GetLogicalTypes(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		Category string `json:"category"`
	}
	if err := decodeStruct(req, &in); err != nil {
		return nil, err
	}
	opts, err := s.logicalTypes(in.Category)
	return reply(map[string]any{"category": in.Category, "options": opts}, err, "category")
}

// ListIdentifierTypes returns every registered field identifier type.
func (s *DatasetServer) ListIdentifierTypes(_ context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	return encodeStruct(map[string]any{"identifier_types": s.identifierTypes()})
}

// GetIdentifierType describes {"type": value}.
func (s *DatasetServer) GetIdentifierType(_ context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		Type string `json:"type"`
	}
	if err := decodeStruct(req, &in); err != nil {
		return nil, err
	}
	info, err := s.identifierType(in.Type)
	return reply(info, err, "identifier type")
}

// CreateDataset creates a dataset from the same document as POST /v1/datasets.
func (s *DatasetServer) CreateDataset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in createDatasetInput
	if err := decodeStruct(req, &in); err != nil {
		return nil, err
	}
	ds, err := s.createDataset(ctx, in)
	return reply(ds, err, "dataset")
}

// ListDatasets lists datasets matching a model.DatasetFilter document.
func (s *DatasetServer) ListDatasets(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var filter model.DatasetFilter
	if err := decodeStruct(req, &filter); err != nil {
		return nil, err
	}
	datasets, total, err := s.listDatasets(ctx, filter)
	return reply(map[string]any{"datasets": datasets, "total": total}, err, "dataset")
}

type datasetRef struct {
	ID    string `json:"id"`
	Actor string `json:"actor,omitempty"`
}

// GetDataset returns {"id": id-or-urn}.
func (s *DatasetServer) GetDataset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in datasetRef
	if err := decodeStruct(req, &in); err != nil {
		return nil, err
	}
	ds, err := s.getDataset(ctx, in.ID)
	return reply(ds, err, "dataset")
}

// DeleteDataset deletes {"id": id-or-urn}.
func (s *DatasetServer) DeleteDataset(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in datasetRef
	if err := decodeStruct(req, &in); err != nil {
		return nil, err
	}
	if err := requireField("id", in.ID); err != nil {
		return nil, grpcError(err, "dataset")
	}
	err := s.deleteDataset(ctx, in.ID, in.Actor)
	return reply(map[string]any{}, err, "dataset")
}

// SetSchema replaces the schema of {"id", "schema", "updated_by"}.
func (s *DatasetServer) SetSchema(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		ID string `json:"id"`
		setSchemaInput
	}
	if err := decodeStruct(req, &in); err != nil {
		return nil, err
	}
	ds, err := s.setSchema(ctx, in.ID, in.setSchemaInput)
	return reply(ds, err, "dataset")
}

// GetCompliance returns the compliance record of {"id": id-or-urn}.
func (s *DatasetServer) GetCompliance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in datasetRef
	if err := decodeStruct(req, &in); err != nil {
		return nil, err
	}
	info, err := s.getCompliance(ctx, in.ID)
	return reply(info, err, "dataset")
}

// SetCompliance replaces the annotations of {"id", "annotations", "updated_by"}.
func (s *DatasetServer) SetCompliance(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in struct {
		ID string `json:"id"`
		setComplianceInput
	}
	if err := decodeStruct(req, &in); err != nil {
		return nil, err
	}
	info, err := s.setCompliance(ctx, in.ID, in.setComplianceInput)
	return reply(info, err, "dataset")
}

// GetEvents returns the event history of {"id": id-or-urn}.
func (s *DatasetServer) GetEvents(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in datasetRef
	if err := decodeStruct(req, &in); err != nil {
		return nil, err
	}
	evts, err := s.getEvents(ctx, in.ID)
	return reply(map[string]any{"events": evts}, err, "dataset")
}
