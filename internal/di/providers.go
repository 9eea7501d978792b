package di

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"LoanGate/internal/domain/models"
	"LoanGate/internal/domain/repository"
	"LoanGate/internal/handler/api"
	mid "LoanGate/internal/middleware"
	internalrepo "LoanGate/internal/repository"
	"LoanGate/internal/service/generator"
	"LoanGate/internal/service/ratelimit"
	"LoanGate/internal/services/governance"
	"LoanGate/internal/usecase"
	"LoanGate/pkg/cache"
	pkgch "LoanGate/pkg/clickhouse"
	"LoanGate/pkg/config"
	pkgkafka "LoanGate/pkg/kafka"
	"LoanGate/pkg/logger"
	"LoanGate/pkg/metrics"
	pkgqueue "LoanGate/pkg/queue"
	"LoanGate/pkg/server"

	"github.com/redis/go-redis/v9"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return logger.New(&logger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the
// history schema exists.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.Schema()); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideKafkaConsumer creates the breach-predictions consumer.
func ProvideKafkaConsumer(cfg *config.Config) (*pkgkafka.Consumer, error) {
	if cfg.Kafka.Predictions.Topic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Predictions.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Predictions.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Predictions.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Predictions.RetryMax, cfg.Kafka.Predictions.BackoffMin, cfg.Kafka.Predictions.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Predictions.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Predictions.MinBytes, cfg.Kafka.Predictions.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideRedisClient creates a shared Redis client, nil when disabled.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideCacheService creates the stats cache: layered memory+Redis
// when Redis is enabled, in-process otherwise.
func ProvideCacheService(cfg *config.Config) (cache.Service, error) {
	if !cfg.Redis.Enabled {
		return cache.NewMemoryCache(), nil
	}
	host, portStr, err := net.SplitHostPort(cfg.Redis.Addr)
	if err != nil {
		return nil, fmt.Errorf("redis addr: %w", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("redis port: %w", err)
	}
	redisCache, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, err
	}
	return cache.NewLayeredCache(redisCache), nil
}

// ProvideHistoricalStore creates the ClickHouse history store behind a
// stats cache.
func ProvideHistoricalStore(chClient *pkgch.Client, c cache.Service, lgr *logger.Logger) repository.HistoricalStore {
	store := internalrepo.NewCHHistoryStore(chClient)
	store.SetLogger(lgr)
	return internalrepo.NewCachedHistoryStore(store, c, 5*time.Minute)
}

// ProvideAuditSink creates the Kafka audit sink.
func ProvideAuditSink(producer *pkgkafka.Producer, cfg *config.Config) repository.AuditSink {
	return internalrepo.NewKafkaAuditSink(producer, cfg.Kafka.AuditTopic)
}

// ProvideQueueStore creates the queue item store.
func ProvideQueueStore() repository.QueueStore {
	return internalrepo.NewMemoryQueueStore()
}

// ProvideEscalationStore creates the per-borrower escalation store.
func ProvideEscalationStore(rclient *redis.Client) repository.EscalationStore {
	if rclient != nil {
		return internalrepo.NewRedisEscalationStore(rclient)
	}
	return internalrepo.NewMemoryEscalationStore()
}

// ProvideAdmissionCounters creates the rate-limit counters.
func ProvideAdmissionCounters(rclient *redis.Client) repository.AdmissionCounters {
	if rclient != nil {
		return ratelimit.NewRedisCounters(rclient)
	}
	return ratelimit.NewWindowCounters()
}

// ProvideDispatcher creates the execution-order dispatcher.
func ProvideDispatcher(producer *pkgkafka.Producer, cfg *config.Config) repository.Dispatcher {
	topic := cfg.Kafka.ExecutionsTopic
	if topic == "" {
		topic = "loangate.executions"
	}
	return internalrepo.NewKafkaDispatcher(producer, topic)
}

// ProvideDeferralQueue creates the Redis-backed deferral queue, nil
// when Redis is disabled.
func ProvideDeferralQueue(lgr *logger.Logger, rclient *redis.Client, cfg *config.Config) *pkgqueue.RedisQueue {
	if rclient == nil {
		return nil
	}
	return pkgqueue.NewRedisQueue(lgr, &pkgqueue.QueueConfig{
		Workers:    cfg.Governance.Deferral.Workers,
		RetryLimit: cfg.Governance.Deferral.RetryLimit,
		RetryDelay: cfg.Governance.Deferral.RetryDelay,
	}, rclient)
}

// ProvideProposalStream creates the generator WebSocket stream.
func ProvideProposalStream(cfg *config.Config, lgr *logger.Logger) repository.ProposalStream {
	return generator.New(
		lgr,
		cfg.Generator.Token,
		cfg.Generator.WebSocketURL,
		cfg.Generator.Portfolios,
		cfg.Generator.ReconnectDelay,
		cfg.Generator.PingInterval,
	)
}

// ProvideEvaluator creates the confidence evaluator.
func ProvideEvaluator(cfg *config.Config) *governance.Evaluator {
	w := governance.FactorWeights{
		SuccessRate:     cfg.Governance.Weights.SuccessRate,
		SampleSize:      cfg.Governance.Weights.SampleSize,
		Effectiveness:   cfg.Governance.Weights.Effectiveness,
		RuleCheck:       cfg.Governance.Weights.RuleCheck,
		ModelSelfReport: cfg.Governance.Weights.ModelSelfReport,
	}
	if w == (governance.FactorWeights{}) {
		w = governance.DefaultFactorWeights()
	}
	return governance.NewEvaluator(w)
}

// ProvideGate creates the approval gate.
func ProvideGate() *governance.Gate {
	return governance.NewGate()
}

// ProvideImpactTable creates the impact policy table from config rows,
// falling back to the built-in table when none are configured.
func ProvideImpactTable(cfg *config.Config) *governance.ImpactTable {
	if len(cfg.Governance.Impact.Rows) == 0 {
		return governance.DefaultImpactTable()
	}
	rows := make(map[governance.ImpactKey]models.ImpactLevel, len(cfg.Governance.Impact.Rows))
	for _, r := range cfg.Governance.Impact.Rows {
		rows[governance.ImpactKey{
			Type:     models.ActionType(r.Type),
			Severity: r.Severity,
			Exposure: r.Exposure,
		}] = models.ImpactLevel(r.Level)
	}
	fallback := models.ImpactLevel(cfg.Governance.Impact.Fallback)
	if fallback == "" {
		fallback = models.ImpactMedium
	}
	return governance.NewImpactTable(rows, fallback)
}

// ProvideMonitor creates the escalation monitor.
func ProvideMonitor(store repository.EscalationStore, audit repository.AuditSink, cfg *config.Config) *governance.Monitor {
	cutoffs := governance.RiskCutoffs{
		Medium:   cfg.Governance.Escalation.Cutoffs.Medium,
		High:     cfg.Governance.Escalation.Cutoffs.High,
		Critical: cfg.Governance.Escalation.Cutoffs.Critical,
	}
	if cutoffs == (governance.RiskCutoffs{}) {
		cutoffs = governance.DefaultRiskCutoffs()
	}
	alerts := governance.AlertThresholds{
		AlertOnCritical:      cfg.Governance.Escalation.Alerts.OnCritical,
		AlertOnHigh:          cfg.Governance.Escalation.Alerts.OnHigh,
		AlertOnLevelIncrease: cfg.Governance.Escalation.Alerts.OnLevelIncrease,
	}
	return governance.NewMonitor(store, audit, cutoffs, alerts)
}

// ProvideThresholds builds the policy snapshot provider. The snapshot
// is immutable for the process lifetime; changing policy means a new
// validated config and a restart.
func ProvideThresholds(cfg *config.Config) usecase.ConfigProvider {
	t := cfg.Governance.Thresholds
	snapshot := &models.ThresholdConfig{
		Version:         t.Version,
		GlobalThreshold: t.Global,
		TimeRestrictions: models.TimeRestrictions{
			BusinessHoursOnly: t.BusinessHoursOnly,
			MaxActionsPerHour: t.MaxActionsPerHour,
			MaxActionsPerDay:  t.MaxActionsPerDay,
		},
		LowConfidenceFloor: t.LowConfidenceFloor,
	}
	if len(t.PerType) > 0 {
		snapshot.TypeThresholds = make(map[models.ActionType]int, len(t.PerType))
		for k, v := range t.PerType {
			snapshot.TypeThresholds[models.ActionType(k)] = v
		}
	}
	if len(t.PerImpact) > 0 {
		snapshot.ImpactThresholds = make(map[models.ImpactLevel]int, len(t.PerImpact))
		for k, v := range t.PerImpact {
			snapshot.ImpactThresholds[models.ImpactLevel(k)] = v
		}
	}
	for _, s := range t.AlwaysRequireApproval {
		snapshot.RiskFactors.AlwaysRequireApproval = append(snapshot.RiskFactors.AlwaysRequireApproval, models.ActionType(s))
	}
	for _, s := range t.RequiresLegalReview {
		snapshot.RiskFactors.RequiresLegalReview = append(snapshot.RiskFactors.RequiresLegalReview, models.ActionType(s))
	}
	for _, s := range t.RequiresComplianceReview {
		snapshot.RiskFactors.RequiresComplianceReview = append(snapshot.RiskFactors.RequiresComplianceReview, models.ActionType(s))
	}
	return func() *models.ThresholdConfig { return snapshot }
}

// ProvideConstraints builds the execution constraints provider.
func ProvideConstraints(cfg *config.Config) usecase.ConstraintsProvider {
	rc := governance.ResourceConstraints{
		MaxSimultaneous:    cfg.Governance.Constraints.MaxSimultaneous,
		AvailableResources: governance.ResourceLevel(cfg.Governance.Constraints.AvailableResources),
		UrgencyBias:        cfg.Governance.Constraints.UrgencyBias,
	}
	if rc.MaxSimultaneous <= 0 {
		rc.MaxSimultaneous = 5
	}
	if rc.AvailableResources == "" {
		rc.AvailableResources = governance.ResourcesModerate
	}
	return func() governance.ResourceConstraints { return rc }
}

// ProvideAdmission creates the admission usecase.
func ProvideAdmission(
	evaluator *governance.Evaluator,
	gate *governance.Gate,
	impact *governance.ImpactTable,
	history repository.HistoricalStore,
	queue repository.QueueStore,
	audit repository.AuditSink,
	counters repository.AdmissionCounters,
	m repository.Metrics,
	lgr *logger.Logger,
	thresholds usecase.ConfigProvider,
	deferrals *pkgqueue.RedisQueue,
) *usecase.Admission {
	opts := []usecase.AdmissionOption{}
	if deferrals != nil {
		opts = append(opts, usecase.WithDeferrals(deferrals))
	}
	return usecase.NewAdmission(evaluator, gate, impact, history, queue, audit, counters, m, lgr, thresholds, opts...)
}

// ProvideReview creates the review usecase.
func ProvideReview(queue repository.QueueStore, audit repository.AuditSink, m repository.Metrics, lgr *logger.Logger) *usecase.Review {
	return usecase.NewReview(queue, audit, m, lgr)
}

// ProvideDispatch creates the dispatch usecase.
func ProvideDispatch(
	queue repository.QueueStore,
	dispatcher repository.Dispatcher,
	audit repository.AuditSink,
	m repository.Metrics,
	lgr *logger.Logger,
	thresholds usecase.ConfigProvider,
	constraints usecase.ConstraintsProvider,
	cfg *config.Config,
) *usecase.Dispatch {
	return usecase.NewDispatch(queue, dispatcher, audit, m, lgr, thresholds, constraints, cfg.Governance.DispatchInterval)
}

// ProvidePredictionsHandler registers the breach-predictions handler.
func ProvidePredictionsHandler(monitor *governance.Monitor, admission *usecase.Admission, m repository.Metrics, lgr *logger.Logger, cfg *config.Config) *usecase.PredictionsHandler {
	return usecase.NewPredictionsHandler(cfg.Kafka.Predictions.Topic, monitor, admission, m, lgr)
}

// ProvideIntake creates the stream intake with its pipeline.
func ProvideIntake(
	stream repository.ProposalStream,
	admission *usecase.Admission,
	m repository.Metrics,
	lgr *logger.Logger,
) *usecase.Intake {
	pipe := mid.NewAdmissionPipeline(admission, m,
		mid.WithMaxRPS(10),
		mid.WithBufferSize(2000),
	)
	return usecase.NewIntake(stream, admission, pipe, m, lgr)
}

// ProvideDeferredAdmissionJob creates the deferral retry job.
func ProvideDeferredAdmissionJob(admission *usecase.Admission, lgr *logger.Logger) *usecase.DeferredAdmissionJob {
	return usecase.NewDeferredAdmissionJob(admission, lgr)
}

// ProvideHTTPHandler creates the governance HTTP handler.
func ProvideHTTPHandler(
	lgr *logger.Logger,
	admission *usecase.Admission,
	review *usecase.Review,
	dispatch *usecase.Dispatch,
	escalations repository.EscalationStore,
	history repository.HistoricalStore,
	intake *usecase.Intake,
) *api.GovernanceEchoHandler {
	return api.NewGovernanceEchoHandler(lgr, admission, review, dispatch, escalations, history, intake)
}

// logPublisher adapts the Kafka producer to the log collector.
type logPublisher struct {
	producer *pkgkafka.Producer
}

func (lp logPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return lp.producer.Publish(ctx, topic, nil, payload)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	lgr *logger.Logger,
	producer *pkgkafka.Producer,
	intake *usecase.Intake,
	dispatch *usecase.Dispatch,
	consumer *pkgkafka.Consumer,
	ph *usecase.PredictionsHandler,
	deferrals *pkgqueue.RedisQueue,
	job *usecase.DeferredAdmissionJob,
	chClient *pkgch.Client,
	handler *api.GovernanceEchoHandler,
) *server.App {
	if cfg.Kafka.LogsTopic != "" {
		lgr.AddCollector(&logger.CollectionConfig{
			TimeInterval:   30 * time.Second,
			CountThreshold: 100,
			Topic:          cfg.Kafka.LogsTopic,
			Publisher:      logPublisher{producer: producer},
		})
	}
	app := server.New(cfg, lgr, intake, dispatch, consumer, ph, deferrals, job, chClient)
	app.SetHTTPHandler(handler)
	return app
}
