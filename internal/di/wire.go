//go:build wireinject
// +build wireinject

package di

import (
	"LoanGate/pkg/config"
	"LoanGate/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRedisClient,
		ProvideCacheService,

		// Repositories
		ProvideHistoricalStore,
		ProvideAuditSink,
		ProvideQueueStore,
		ProvideEscalationStore,
		ProvideAdmissionCounters,
		ProvideDispatcher,
		ProvideDeferralQueue,
		ProvideProposalStream,

		// Governance policy
		ProvideEvaluator,
		ProvideGate,
		ProvideImpactTable,
		ProvideMonitor,
		ProvideThresholds,
		ProvideConstraints,

		// Use cases
		ProvideAdmission,
		ProvideReview,
		ProvideDispatch,
		ProvidePredictionsHandler,
		ProvideIntake,
		ProvideDeferredAdmissionJob,

		// HTTP surface and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
