package tests

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"dispatch/internal/domain"
	"dispatch/internal/redis"
	"dispatch/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu          sync.RWMutex
	drivers     map[string]*domain.Driver
	assignments map[string][]*domain.VehicleAssignment

	// Counters for verification
	UpdateStatusCallCount   int32
	UpdateLocationCallCount int32

	// Error injection
	UpdateStatusError   error
	UpdateLocationError error
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers:     make(map[string]*domain.Driver),
		assignments: make(map[string][]*domain.VehicleAssignment),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

// AddAssignment adds a vehicle assignment for a driver.
func (m *MockDriverRepository) AddAssignment(a *domain.VehicleAssignment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[a.DriverID] = append(m.assignments[a.DriverID], a)
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) UpdateLocation(ctx context.Context, id, cellIndex string, at time.Time) error {
	atomic.AddInt32(&m.UpdateLocationCallCount, 1)
	if m.UpdateLocationError != nil {
		return m.UpdateLocationError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.CurrentCell = cellIndex
	driver.LocationUpdatedAt = at
	return nil
}

func (m *MockDriverRepository) UpdateStatus(ctx context.Context, id string, status domain.DriverStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Status = status
	return nil
}

func (m *MockDriverRepository) ActiveVehicleAssignment(ctx context.Context, driverID string, at time.Time) (*domain.VehicleAssignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var active []*domain.VehicleAssignment
	for _, a := range m.assignments[driverID] {
		if a.Active(at) {
			active = append(active, a)
		}
	}
	if len(active) == 0 {
		return nil, nil
	}
	sort.Slice(active, func(i, j int) bool { return active[i].StartTime.Before(active[j].StartTime) })
	copy := *active[0]
	return &copy, nil
}

// GetDriver returns driver for test assertions.
func (m *MockDriverRepository) GetDriver(id string) *domain.Driver {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.drivers[id]
}

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount       int32
	AssignDriverCallCount int32

	// Error injection
	CreateError       error
	AssignDriverError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) AssignDriver(ctx context.Context, rideID, driverID, vehicleID string) error {
	atomic.AddInt32(&m.AssignDriverCallCount, 1)
	if m.AssignDriverError != nil {
		return m.AssignDriverError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return repository.ErrNotFound
	}
	ride.DriverID = driverID
	ride.VehicleID = vehicleID
	ride.UpdatedAt = time.Now()
	return nil
}

func (m *MockRideRepository) SetStartedAt(ctx context.Context, rideID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return repository.ErrNotFound
	}
	ride.StartedAt = at
	return nil
}

func (m *MockRideRepository) SetEndedAt(ctx context.Context, rideID string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[rideID]
	if !ok {
		return repository.ErrNotFound
	}
	ride.EndedAt = at
	return nil
}

// GetRide returns the ride by ID (for test assertions).
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

// ──────────────────────────────────────────────
// MOCK RIDE DETAILS REPOSITORY
// ──────────────────────────────────────────────

// MockRideDetailsRepository is a mock implementation of
// RideDetailsRepository. FindBookedInCells honours the rejection set
// registered through RejectRide, mirroring the SQL anti-join.
type MockRideDetailsRepository struct {
	mu       sync.RWMutex
	details  map[string]*domain.RideDetails
	rejected map[string]map[string]bool // driverID -> rideID set

	// Counters for verification
	MarkVerifiedCallCount int32
	UpdateStatusCallCount int32

	// Error injection
	MarkVerifiedError error
	UpdateStatusError error
}

// NewMockRideDetailsRepository creates a new mock ride details repository.
func NewMockRideDetailsRepository() *MockRideDetailsRepository {
	return &MockRideDetailsRepository{
		details:  make(map[string]*domain.RideDetails),
		rejected: make(map[string]map[string]bool),
	}
}

// AddDetails adds a detail row to the mock repository.
func (m *MockRideDetailsRepository) AddDetails(d *domain.RideDetails) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details[d.RideID] = d
}

// RejectRide registers a (driver, ride) rejection for candidate filtering.
func (m *MockRideDetailsRepository) RejectRide(driverID, rideID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rejected[driverID] == nil {
		m.rejected[driverID] = make(map[string]bool)
	}
	m.rejected[driverID][rideID] = true
}

func (m *MockRideDetailsRepository) Create(ctx context.Context, d *domain.RideDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.details[d.RideID] = d
	return nil
}

func (m *MockRideDetailsRepository) GetByRideID(ctx context.Context, rideID string) (*domain.RideDetails, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.details[rideID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *d
	return &copy, nil
}

func (m *MockRideDetailsRepository) GetByRideIDForUpdate(ctx context.Context, rideID string) (*domain.RideDetails, error) {
	return m.GetByRideID(ctx, rideID)
}

func (m *MockRideDetailsRepository) UpdateStatus(ctx context.Context, rideID string, status domain.RideStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.details[rideID]
	if !ok {
		return repository.ErrNotFound
	}
	d.Status = status
	return nil
}

func (m *MockRideDetailsRepository) MarkVerified(ctx context.Context, rideID string, status domain.RideStatus) error {
	atomic.AddInt32(&m.MarkVerifiedCallCount, 1)
	if m.MarkVerifiedError != nil {
		return m.MarkVerifiedError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.details[rideID]
	if !ok {
		return repository.ErrNotFound
	}
	d.Verified = true
	d.Status = status
	return nil
}

func (m *MockRideDetailsRepository) FindBookedInCells(ctx context.Context, cells []string, excludeDriverID string) ([]*domain.RideDetails, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	inCells := make(map[string]bool, len(cells))
	for _, c := range cells {
		inCells[c] = true
	}

	var out []*domain.RideDetails
	for _, d := range m.details {
		if d.Status != domain.RideStatusBooked {
			continue
		}
		if !inCells[d.FromCell] {
			continue
		}
		if m.rejected[excludeDriverID][d.RideID] {
			continue
		}
		copy := *d
		out = append(out, &copy)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MockRideDetailsRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.RideDetails, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.RideDetails
	for _, d := range m.details {
		if d.RiderID == riderID {
			copy := *d
			out = append(out, &copy)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// GetDetails returns the detail row for assertions.
func (m *MockRideDetailsRepository) GetDetails(rideID string) *domain.RideDetails {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.details[rideID]
}

// ──────────────────────────────────────────────
// MOCK AUDIT REPOSITORIES
// ──────────────────────────────────────────────

// MockEventLogRepository is a mock implementation of EventLogRepository.
type MockEventLogRepository struct {
	mu      sync.RWMutex
	entries []*domain.EventLog

	AppendCallCount int32
	AppendError     error
}

// NewMockEventLogRepository creates a new mock event log repository.
func NewMockEventLogRepository() *MockEventLogRepository {
	return &MockEventLogRepository{}
}

func (m *MockEventLogRepository) Append(ctx context.Context, entry *domain.EventLog) error {
	atomic.AddInt32(&m.AppendCallCount, 1)
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockEventLogRepository) ListByRide(ctx context.Context, rideID string) ([]*domain.EventLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.EventLog
	for _, e := range m.entries {
		if e.RideID == rideID {
			out = append(out, e)
		}
	}
	return out, nil
}

// EntriesForRide returns the audit entries for assertions.
func (m *MockEventLogRepository) EntriesForRide(rideID string) []*domain.EventLog {
	out, _ := m.ListByRide(context.Background(), rideID)
	return out
}

// MockRejectionRepository is a mock implementation of RejectionRepository.
type MockRejectionRepository struct {
	mu         sync.RWMutex
	rejections []*domain.DriverRideRejection

	AppendCallCount int32
	AppendError     error
}

// NewMockRejectionRepository creates a new mock rejection repository.
func NewMockRejectionRepository() *MockRejectionRepository {
	return &MockRejectionRepository{}
}

func (m *MockRejectionRepository) Append(ctx context.Context, r *domain.DriverRideRejection) error {
	atomic.AddInt32(&m.AppendCallCount, 1)
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejections = append(m.rejections, r)
	return nil
}

func (m *MockRejectionRepository) ListRideIDsByDriver(ctx context.Context, driverID string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	seen := make(map[string]bool)
	var out []string
	for _, r := range m.rejections {
		if r.DriverID == driverID && !seen[r.RideID] {
			seen[r.RideID] = true
			out = append(out, r.RideID)
		}
	}
	return out, nil
}

// CountRejections returns the number of stored rejection rows.
func (m *MockRejectionRepository) CountRejections() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rejections)
}

// MockLocationLogRepository is a mock implementation of LocationLogRepository.
type MockLocationLogRepository struct {
	mu    sync.RWMutex
	pings []*domain.RideLocationLog

	AppendCallCount int32
	AppendError     error
}

// NewMockLocationLogRepository creates a new mock location log repository.
func NewMockLocationLogRepository() *MockLocationLogRepository {
	return &MockLocationLogRepository{}
}

func (m *MockLocationLogRepository) Append(ctx context.Context, entry *domain.RideLocationLog) error {
	atomic.AddInt32(&m.AppendCallCount, 1)
	if m.AppendError != nil {
		return m.AppendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pings = append(m.pings, entry)
	return nil
}

// PingsForRide returns the stored pings for assertions.
func (m *MockLocationLogRepository) PingsForRide(rideID string) []*domain.RideLocationLog {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.RideLocationLog
	for _, p := range m.pings {
		if p.RideID == rideID {
			out = append(out, p)
		}
	}
	return out
}

// ──────────────────────────────────────────────
// MOCK PRICING REPOSITORY
// ──────────────────────────────────────────────

type pricingKey struct {
	region      string
	vehicleType int16
}

// MockPricingRepository is a mock implementation of PricingRepository.
type MockPricingRepository struct {
	mu        sync.RWMutex
	configs   map[pricingKey]*domain.PricingConfig
	surges    []*domain.SurgePricing
	snapshots []*domain.FareSnapshot

	CreateSnapshotCallCount int32
	CreateSnapshotError     error
}

// NewMockPricingRepository creates a new mock pricing repository.
func NewMockPricingRepository() *MockPricingRepository {
	return &MockPricingRepository{
		configs: make(map[pricingKey]*domain.PricingConfig),
	}
}

// AddConfig adds a pricing row.
func (m *MockPricingRepository) AddConfig(cfg *domain.PricingConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[pricingKey{cfg.RegionCode, cfg.VehicleTypeID}] = cfg
}

// AddSurge adds a surge window.
func (m *MockPricingRepository) AddSurge(s *domain.SurgePricing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.surges = append(m.surges, s)
}

func (m *MockPricingRepository) GetConfig(ctx context.Context, regionCode string, vehicleTypeID int16) (*domain.PricingConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cfg, ok := m.configs[pricingKey{regionCode, vehicleTypeID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *cfg
	return &copy, nil
}

func (m *MockPricingRepository) UpsertConfig(ctx context.Context, cfg *domain.PricingConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs[pricingKey{cfg.RegionCode, cfg.VehicleTypeID}] = cfg
	return nil
}

func (m *MockPricingRepository) ActiveSurge(ctx context.Context, regionCode string, at time.Time) (*domain.SurgePricing, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var best *domain.SurgePricing
	for _, s := range m.surges {
		if s.RegionCode != regionCode || !s.ActiveAt(at) {
			continue
		}
		if best == nil || s.EffectiveFrom.After(best.EffectiveFrom) {
			best = s
		}
	}
	if best == nil {
		return nil, nil
	}
	copy := *best
	return &copy, nil
}

func (m *MockPricingRepository) CreateSurge(ctx context.Context, s *domain.SurgePricing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.surges = append(m.surges, s)
	return nil
}

func (m *MockPricingRepository) CreateSnapshot(ctx context.Context, snap *domain.FareSnapshot) error {
	atomic.AddInt32(&m.CreateSnapshotCallCount, 1)
	if m.CreateSnapshotError != nil {
		return m.CreateSnapshotError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots = append(m.snapshots, snap)
	return nil
}

// Snapshots returns the stored snapshots for assertions.
func (m *MockPricingRepository) Snapshots() []*domain.FareSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.FareSnapshot, len(m.snapshots))
	copy(out, m.snapshots)
	return out
}

// ──────────────────────────────────────────────
// MOCK REGION REPOSITORY
// ──────────────────────────────────────────────

// MockRegionRepository is a mock implementation of RegionRepository.
type MockRegionRepository struct {
	mu      sync.RWMutex
	regions map[string]*domain.Region
}

// NewMockRegionRepository creates a new mock region repository.
func NewMockRegionRepository() *MockRegionRepository {
	return &MockRegionRepository{
		regions: make(map[string]*domain.Region),
	}
}

// AddRegion adds a region.
func (m *MockRegionRepository) AddRegion(r *domain.Region) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regions[r.Code] = r
}

func (m *MockRegionRepository) GetByCode(ctx context.Context, code string) (*domain.Region, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.regions[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *r
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK WALLET REPOSITORY
// ──────────────────────────────────────────────

// MockWalletRepository is a mock implementation of WalletRepository.
type MockWalletRepository struct {
	mu           sync.RWMutex
	wallets      map[string]*domain.Wallet
	transactions []*domain.WalletTransaction

	AppendTransactionCallCount int32
	AppendTransactionError     error
}

// NewMockWalletRepository creates a new mock wallet repository.
func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{
		wallets: make(map[string]*domain.Wallet),
	}
}

// AddWallet adds a wallet.
func (m *MockWalletRepository) AddWallet(w *domain.Wallet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[w.ID] = w
}

func (m *MockWalletRepository) Create(ctx context.Context, w *domain.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[w.ID] = w
	return nil
}

func (m *MockWalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.wallets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *w
	return &copy, nil
}

func (m *MockWalletRepository) GetByUser(ctx context.Context, userID string) (*domain.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.wallets {
		if w.UserID == userID {
			copy := *w
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockWalletRepository) GetByIDForUpdate(ctx context.Context, id string) (*domain.Wallet, error) {
	return m.GetByID(ctx, id)
}

func (m *MockWalletRepository) SetAmount(ctx context.Context, id string, amount float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[id]
	if !ok {
		return repository.ErrNotFound
	}
	w.Amount = amount
	return nil
}

func (m *MockWalletRepository) AppendTransaction(ctx context.Context, tx *domain.WalletTransaction) error {
	atomic.AddInt32(&m.AppendTransactionCallCount, 1)
	if m.AppendTransactionError != nil {
		return m.AppendTransactionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transactions = append(m.transactions, tx)
	return nil
}

func (m *MockWalletRepository) ListTransactions(ctx context.Context, walletID string) ([]*domain.WalletTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*domain.WalletTransaction
	for _, tx := range m.transactions {
		if tx.WalletID == walletID {
			out = append(out, tx)
		}
	}
	return out, nil
}

// GetWallet returns the wallet for assertions.
func (m *MockWalletRepository) GetWallet(id string) *domain.Wallet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.wallets[id]
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]time.Time),
	}
}

func (m *MockLockStore) acquire(key string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if expiry, exists := m.locks[key]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}

	m.locks[key] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) release(key string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}

func (m *MockLockStore) AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error) {
	return m.acquire("lock:ride:"+rideID, ttl)
}

func (m *MockLockStore) ReleaseRideLock(ctx context.Context, rideID string) error {
	return m.release("lock:ride:" + rideID)
}

func (m *MockLockStore) AcquireDriverLock(ctx context.Context, driverID string, ttl time.Duration) (bool, error) {
	return m.acquire("lock:driver:"+driverID, ttl)
}

func (m *MockLockStore) ReleaseDriverLock(ctx context.Context, driverID string) error {
	return m.release("lock:driver:" + driverID)
}

// IsRideLocked checks if a ride is locked (for test assertions).
func (m *MockLockStore) IsRideLocked(rideID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks["lock:ride:"+rideID]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is a mock implementation of CacheStore.
type MockCacheStore struct {
	mu      sync.RWMutex
	pricing map[string]*redis.CachedPricing
	surge   map[string]*redis.CachedSurge

	// Counters for verification
	GetSurgeCallCount   int32
	GetPricingCallCount int32
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		pricing: make(map[string]*redis.CachedPricing),
		surge:   make(map[string]*redis.CachedSurge),
	}
}

func (m *MockCacheStore) cacheKey(regionCode string, vehicleTypeID int16) string {
	return fmt.Sprintf("%s:%d", regionCode, vehicleTypeID)
}

func (m *MockCacheStore) GetPricing(ctx context.Context, regionCode string, vehicleTypeID int16) (*redis.CachedPricing, error) {
	atomic.AddInt32(&m.GetPricingCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pricing[m.cacheKey(regionCode, vehicleTypeID)]
	if !ok {
		return nil, nil
	}
	copy := *p
	return &copy, nil
}

func (m *MockCacheStore) SetPricing(ctx context.Context, pricing *redis.CachedPricing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pricing[m.cacheKey(pricing.RegionCode, pricing.VehicleTypeID)] = pricing
	return nil
}

func (m *MockCacheStore) InvalidatePricing(ctx context.Context, regionCode string, vehicleTypeID int16) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pricing, m.cacheKey(regionCode, vehicleTypeID))
	return nil
}

func (m *MockCacheStore) GetSurge(ctx context.Context, regionCode string) (*redis.CachedSurge, error) {
	atomic.AddInt32(&m.GetSurgeCallCount, 1)
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.surge[regionCode]
	if !ok {
		return nil, nil
	}
	copy := *s
	return &copy, nil
}

func (m *MockCacheStore) SetSurge(ctx context.Context, surge *redis.CachedSurge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.surge[surge.RegionCode] = surge
	return nil
}

func (m *MockCacheStore) InvalidateSurge(ctx context.Context, regionCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.surge, regionCode)
	return nil
}

// HasSurge reports whether a surge entry is cached for the region.
func (m *MockCacheStore) HasSurge(regionCode string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.surge[regionCode]
	return ok
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)
