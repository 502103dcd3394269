package match

import (
	"google.golang.org/grpc"

	pb "github.com/oggyb/muzz-match/internal/api/matchv1"
	"github.com/oggyb/muzz-match/internal/app"
)

// Registrar ties the Match service into the gRPC server
type Registrar struct {
	appCtx *app.AppContext
}

// NewRegistrar creates a new Registrar for the Match service
func NewRegistrar(appCtx *app.AppContext) *Registrar {
	return &Registrar{appCtx: appCtx}
}

// Register attaches the Match service implementation to the gRPC server
func (r *Registrar) Register(s *grpc.Server) {
	pb.RegisterMatchServiceServer(s, NewHandler(NewServiceFromContext(r.appCtx), r.appCtx.Logger))
}

// NewServiceFromContext builds a Service from the shared dependencies.
func NewServiceFromContext(appCtx *app.AppContext) *Service {
	opts := []Option{}
	if appCtx.Config != nil {
		opts = append(opts,
			WithCreatePolicy(ParseCreatePolicy(appCtx.Config.Match.CreatePolicy)),
			WithPageSize(appCtx.Config.Match.PageSize),
		)
	}
	return NewService(appCtx.Store, appCtx.Resolver, appCtx.Logger, opts...)
}
