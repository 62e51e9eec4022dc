package pkm

// Service is the persona-scoped resource and tagging engine. Every public
// method takes an ownerID resolved upstream; the engine never authenticates.
type Service struct {
	database  Database
	generator TextGenerator
	logger    Logger
	clock     Clock
	idgen     IDGenerator

	bulkConcurrency int
}

// NewService creates a Service. generator may be nil when no content
// generation is wired; nil logger, clock and idgen fall back to the
// no-op logger, RealClock and UUIDGenerator.
func NewService(database Database, generator TextGenerator, logger Logger, clock Clock, idgen IDGenerator) *Service {
	if logger == nil {
		logger = NewNopLogger()
	}
	if clock == nil {
		clock = RealClock{}
	}
	if idgen == nil {
		idgen = UUIDGenerator{}
	}
	return &Service{
		database:        database,
		generator:       generator,
		logger:          logger,
		clock:           clock,
		idgen:           idgen,
		bulkConcurrency: 1,
	}
}

// SetBulkConcurrency bounds how many bulk items run at once. Values below
// 2 keep batches sequential.
func (s *Service) SetBulkConcurrency(n int) {
	if n < 1 {
		n = 1
	}
	s.bulkConcurrency = n
}
