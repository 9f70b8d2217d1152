package lineage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRelationStore is an in-memory RelationRepository for traversal tests
type stubRelationStore struct {
	relations []Relation
	err       error
}

func (s *stubRelationStore) Add(ctx context.Context, relation *Relation) error {
	if s.err != nil {
		return s.err
	}
	for _, existing := range s.relations {
		if existing.Key() == relation.Key() {
			return nil
		}
	}
	s.relations = append(s.relations, *relation)
	return nil
}

func (s *stubRelationStore) FindByUID(ctx context.Context, uid UID) ([]Relation, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []Relation
	for _, relation := range s.relations {
		if relation.Involves(uid) {
			out = append(out, relation)
		}
	}
	return out, nil
}

// stubEntityRepo is an in-memory EntityRepository; UIDs absent from the
// records map resolve to not-found
type stubEntityRepo struct {
	records map[UID]RawRecord
	err     error
}

func (s *stubEntityRepo) Lookup(ctx context.Context, entityType EntityType, uid UID) (RawRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.records[uid], nil
}

type traceFixture struct {
	store    *stubRelationStore
	entities *stubEntityRepo
	engine   *TraceEngine
}

func newTraceFixture(t *testing.T) *traceFixture {
	t.Helper()
	store := &stubRelationStore{}
	entities := &stubEntityRepo{records: make(map[UID]RawRecord)}
	registry := NewResolverRegistry()
	for _, entityType := range AllEntityTypes() {
		require.NoError(t, registry.Register(entityType, func(record RawRecord) BusinessStatus {
			if status, ok := record["status"].(string); ok && BusinessStatus(status).IsValid() {
				return BusinessStatus(status)
			}
			return StatusDraft
		}))
	}
	return &traceFixture{
		store:    store,
		entities: entities,
		engine:   NewTraceEngine(store, entities, registry),
	}
}

func (f *traceFixture) addEntity(t *testing.T, entityType EntityType, status BusinessStatus) UID {
	t.Helper()
	uid, err := NewUID(entityType)
	require.NoError(t, err)
	f.entities.records[uid] = RawRecord{"status": string(status)}
	return uid
}

func (f *traceFixture) link(t *testing.T, source, target UID, relationType RelationType) {
	t.Helper()
	relation, err := NewRelation(source, target, relationType, nil)
	require.NoError(t, err)
	require.NoError(t, f.store.Add(context.Background(), relation))
}

func tracedUIDs(results []TraceResult) []UID {
	uids := make([]UID, len(results))
	for i, r := range results {
		uids[i] = r.UID
	}
	return uids
}

func distinctUIDs(results []TraceResult) map[UID]int {
	counts := make(map[UID]int)
	for _, r := range results {
		counts[r.UID]++
	}
	return counts
}

func TestTraceEngine_ExampleScenario(t *testing.T) {
	f := newTraceFixture(t)
	order := f.addEntity(t, EntityTypeOrder, StatusApproved)
	cashFlow := f.addEntity(t, EntityTypeCashFlow, StatusSettled)
	f.link(t, cashFlow, order, RelationTypePayment)

	results, err := f.engine.Trace(context.Background(), order)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, order, results[0].UID)
	assert.Equal(t, EntityTypeOrder, results[0].EntityType)
	assert.Equal(t, StatusApproved, results[0].Status)
	assert.Equal(t, []UID{order}, results[0].TracePath)
	require.Len(t, results[0].Relations, 1)
	assert.Equal(t, RelationTypePayment, results[0].Relations[0].RelationType)

	assert.Equal(t, cashFlow, results[1].UID)
	assert.Equal(t, EntityTypeCashFlow, results[1].EntityType)
	assert.Equal(t, StatusSettled, results[1].Status)
	assert.Equal(t, []UID{order, cashFlow}, results[1].TracePath)
}

func TestTraceEngine_CycleTerminates(t *testing.T) {
	f := newTraceFixture(t)
	a := f.addEntity(t, EntityTypeOrder, StatusApproved)
	b := f.addEntity(t, EntityTypeBill, StatusSubmitted)
	c := f.addEntity(t, EntityTypeSettlement, StatusSettled)
	f.link(t, a, b, RelationTypeAllocation)
	f.link(t, b, c, RelationTypeSettlement)
	f.link(t, c, a, RelationTypeReversal)

	results, err := f.engine.Trace(context.Background(), a)
	require.NoError(t, err)
	require.NotEmpty(t, results)

	counts := distinctUIDs(results)
	assert.LessOrEqual(t, len(counts), 3)
	for uid := range counts {
		assert.Contains(t, []UID{a, b, c}, uid)
	}
	// Ancestor cycles are cut: no path revisits its own prefix
	for _, result := range results {
		seen := make(map[UID]struct{})
		for _, step := range result.TracePath {
			_, dup := seen[step]
			assert.False(t, dup, "path revisits %s", step)
			seen[step] = struct{}{}
		}
	}
}

func TestTraceEngine_DepthBound(t *testing.T) {
	f := newTraceFixture(t)
	uids := make([]UID, 11)
	for i := range uids {
		uids[i] = f.addEntity(t, EntityTypeTransfer, StatusApproved)
	}
	for i := 0; i < 10; i++ {
		f.link(t, uids[i], uids[i+1], RelationTypeTransfer)
	}

	results, err := f.engine.Trace(context.Background(), uids[0], WithMaxDepth(3))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(results), 3)
	assert.Equal(t, []UID{uids[0], uids[1], uids[2]}, tracedUIDs(results))
}

func TestTraceEngine_MissingEntityResilience(t *testing.T) {
	f := newTraceFixture(t)
	root := f.addEntity(t, EntityTypeOrder, StatusApproved)
	settled := f.addEntity(t, EntityTypeSettlement, StatusSettled)

	purged, err := NewUID(EntityTypeCashFlow)
	require.NoError(t, err)

	f.link(t, purged, root, RelationTypePayment)
	f.link(t, root, settled, RelationTypeSettlement)

	results, err := f.engine.Trace(context.Background(), root)
	require.NoError(t, err)

	counts := distinctUIDs(results)
	assert.Contains(t, counts, root)
	assert.Contains(t, counts, settled)
	assert.NotContains(t, counts, purged)
}

func TestTraceEngine_MalformedUIDExcluded(t *testing.T) {
	f := newTraceFixture(t)
	root := f.addEntity(t, EntityTypeOrder, StatusApproved)

	// A hand-crafted edge pointing at garbage must not abort the trace
	f.store.relations = append(f.store.relations, Relation{
		SourceUID:    "garbage",
		TargetUID:    root,
		RelationType: RelationTypePayment,
	})

	results, err := f.engine.Trace(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, root, results[0].UID)
}

func TestTraceEngine_MalformedRoot(t *testing.T) {
	f := newTraceFixture(t)
	results, err := f.engine.Trace(context.Background(), "not a uid at all")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTraceEngine_DiamondSiblingRevisit(t *testing.T) {
	f := newTraceFixture(t)
	a := f.addEntity(t, EntityTypeOrder, StatusApproved)
	b := f.addEntity(t, EntityTypeBill, StatusSubmitted)
	c := f.addEntity(t, EntityTypeCashFlow, StatusSettled)
	d := f.addEntity(t, EntityTypeSettlement, StatusSettled)
	f.link(t, a, b, RelationTypeAllocation)
	f.link(t, a, c, RelationTypeAllocation)
	f.link(t, b, d, RelationTypeSettlement)
	f.link(t, c, d, RelationTypeSettlement)

	results, err := f.engine.Trace(context.Background(), a)
	require.NoError(t, err)

	// Sibling branches keep their own visited sets, so the converging
	// node is reported once per branch.
	counts := distinctUIDs(results)
	assert.Equal(t, 1, counts[a])
	assert.Equal(t, 2, counts[d])
}

func TestTraceEngine_VisitBudget(t *testing.T) {
	f := newTraceFixture(t)
	uids := make([]UID, 6)
	for i := range uids {
		uids[i] = f.addEntity(t, EntityTypeConsumption, StatusSettled)
	}
	for i := 0; i < 5; i++ {
		f.link(t, uids[i], uids[i+1], RelationTypeAdjustment)
	}

	results, err := f.engine.Trace(context.Background(), uids[0], WithMaxDepth(10), WithMaxVisits(2))
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestTraceEngine_CancelledContext(t *testing.T) {
	f := newTraceFixture(t)
	root := f.addEntity(t, EntityTypeOrder, StatusApproved)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := f.engine.Trace(ctx, root)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestTraceEngine_CollaboratorErrorPropagates(t *testing.T) {
	f := newTraceFixture(t)
	root := f.addEntity(t, EntityTypeOrder, StatusApproved)

	boom := errors.New("connection refused")
	f.entities.err = boom

	_, err := f.engine.Trace(context.Background(), root)
	assert.ErrorIs(t, err, boom)
}

func TestTraceEngine_UnregisteredResolver(t *testing.T) {
	store := &stubRelationStore{}
	entities := &stubEntityRepo{records: make(map[UID]RawRecord)}
	engine := NewTraceEngine(store, entities, NewResolverRegistry())

	uid, err := NewUID(EntityTypeRebate)
	require.NoError(t, err)
	entities.records[uid] = RawRecord{"status": "PAID"}

	results, err := engine.Trace(context.Background(), uid)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, BusinessStatus(""), results[0].Status)
}

func TestTraceEngine_Chain(t *testing.T) {
	f := newTraceFixture(t)
	order := f.addEntity(t, EntityTypeOrder, StatusApproved)
	payment := f.addEntity(t, EntityTypeCashFlow, StatusSettled)
	settlement := f.addEntity(t, EntityTypeSettlement, StatusSettled)
	f.link(t, payment, order, RelationTypePayment)
	f.link(t, order, settlement, RelationTypeSettlement)

	chain, err := f.engine.Chain(context.Background(), order, WithChainDepth(1))
	require.NoError(t, err)

	require.Len(t, chain.Upstream, 1)
	assert.Equal(t, payment, chain.Upstream[0].UID)
	require.Len(t, chain.Downstream, 1)
	assert.Equal(t, settlement, chain.Downstream[0].UID)

	// At the default chain depth each side keeps walking its own branch,
	// so the far endpoints show up on both sides via the shared root.
	deep, err := f.engine.Chain(context.Background(), order)
	require.NoError(t, err)
	assert.Equal(t, payment, deep.Upstream[0].UID)
	assert.Equal(t, settlement, deep.Downstream[0].UID)
	assert.Contains(t, distinctUIDs(deep.Upstream), order)
}

func TestTraceEngine_Chain_Empty(t *testing.T) {
	f := newTraceFixture(t)
	lonely := f.addEntity(t, EntityTypeAdjustment, StatusDraft)

	chain, err := f.engine.Chain(context.Background(), lonely)
	require.NoError(t, err)
	assert.Empty(t, chain.Upstream)
	assert.Empty(t, chain.Downstream)
}
