package lineage

import (
	"context"
)

// Traversal bounds. MaxDepth limits the length of any single path from
// the root (explicit depth counter, independent of cycle prevention);
// MaxVisits caps the total nodes examined across the whole call tree so a
// wide graph cannot run unbounded.
const (
	DefaultMaxDepth   = 5
	DefaultChainDepth = 3
	DefaultMaxVisits  = 256
)

// TraceResult is one visited node in a lineage traversal
type TraceResult struct {
	UID        UID            `json:"uid"`
	EntityType EntityType     `json:"entity_type"`
	Status     BusinessStatus `json:"status"`
	RawData    RawRecord      `json:"raw_data,omitempty"`
	Relations  []Relation     `json:"relations"`
	TracePath  []UID          `json:"trace_path"`
}

// ChainResult partitions a record's lineage into the entities pointing at
// it (upstream) and the entities it points at (downstream)
type ChainResult struct {
	Upstream   []TraceResult `json:"upstream"`
	Downstream []TraceResult `json:"downstream"`
}

// TraceOption is a functional option for a traversal
type TraceOption func(*traceConfig)

type traceConfig struct {
	maxDepth   int
	chainDepth int
	maxVisits  int
}

// WithMaxDepth bounds the length of any single path from the root
func WithMaxDepth(depth int) TraceOption {
	return func(cfg *traceConfig) {
		if depth > 0 {
			cfg.maxDepth = depth
		}
	}
}

// WithChainDepth bounds the per-side depth of a Chain traversal
func WithChainDepth(depth int) TraceOption {
	return func(cfg *traceConfig) {
		if depth > 0 {
			cfg.chainDepth = depth
		}
	}
}

// WithMaxVisits caps the total nodes examined across the whole traversal
func WithMaxVisits(visits int) TraceOption {
	return func(cfg *traceConfig) {
		if visits > 0 {
			cfg.maxVisits = visits
		}
	}
}

func newTraceConfig(opts []TraceOption) traceConfig {
	cfg := traceConfig{
		maxDepth:   DefaultMaxDepth,
		chainDepth: DefaultChainDepth,
		maxVisits:  DefaultMaxVisits,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// visitBudget is the shared node-count budget of one traversal
type visitBudget struct {
	remaining int
}

func (b *visitBudget) take() bool {
	if b.remaining <= 0 {
		return false
	}
	b.remaining--
	return true
}

// TraceEngine answers lineage queries by walking the relation graph. It
// holds no entity data itself; records and statuses come from the
// injected collaborators.
type TraceEngine struct {
	relations RelationRepository
	entities  EntityRepository
	resolvers *ResolverRegistry
}

// NewTraceEngine creates a trace engine over the given collaborators
func NewTraceEngine(relations RelationRepository, entities EntityRepository, resolvers *ResolverRegistry) *TraceEngine {
	return &TraceEngine{
		relations: relations,
		entities:  entities,
		resolvers: resolvers,
	}
}

// Trace performs a depth-first traversal from uid and returns one
// TraceResult per visited, resolvable node: the node itself first, then
// its children's results in relation-iteration order.
//
// Failure modes degrade instead of raising: malformed UIDs, repository
// misses and ancestor-chain cycles prune the branch; exhausting the visit
// budget or a cancelled context yields the results accumulated so far.
// Only collaborator I/O errors propagate. Each branch recurses with its
// own copy of the visited set, so a diamond-shaped graph reports the
// converging node once per branch; only cycles along a single path are
// cut.
func (e *TraceEngine) Trace(ctx context.Context, uid UID, opts ...TraceOption) ([]TraceResult, error) {
	cfg := newTraceConfig(opts)
	budget := &visitBudget{remaining: cfg.maxVisits}
	results, err := e.traceNode(ctx, uid, cfg.maxDepth, map[UID]struct{}{}, nil, budget)
	if err != nil {
		return nil, err
	}
	if results == nil {
		results = []TraceResult{}
	}
	return results, nil
}

func (e *TraceEngine) traceNode(ctx context.Context, uid UID, depthLeft int, visited map[UID]struct{}, path []UID, budget *visitBudget) ([]TraceResult, error) {
	if depthLeft <= 0 || ctx.Err() != nil {
		return nil, nil
	}
	if _, seen := visited[uid]; seen {
		return nil, nil
	}
	if !budget.take() {
		return nil, nil
	}
	visited[uid] = struct{}{}

	parsed, err := ParseUID(uid)
	if err != nil {
		// Malformed identifiers end the branch, not the trace.
		return nil, nil
	}

	record, err := e.entities.Lookup(ctx, parsed.EntityType, uid)
	if err != nil {
		return nil, err
	}
	if record == nil {
		// A relation may legitimately point at a purged record.
		return nil, nil
	}

	status, _ := e.resolvers.Resolve(parsed.EntityType, record)

	relations, err := e.relations.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	nodePath := make([]UID, 0, len(path)+1)
	nodePath = append(nodePath, path...)
	nodePath = append(nodePath, uid)

	results := []TraceResult{{
		UID:        uid,
		EntityType: parsed.EntityType,
		Status:     status,
		RawData:    record,
		Relations:  relations,
		TracePath:  nodePath,
	}}

	for i := range relations {
		other := relations[i].OtherEnd(uid)
		branch, err := e.traceNode(ctx, other, depthLeft-1, copyVisited(visited), nodePath, budget)
		if err != nil {
			return nil, err
		}
		results = append(results, branch...)
	}

	return results, nil
}

// Chain builds the upstream/downstream view of uid: relations where uid
// is the target contribute their source to the upstream side, relations
// where uid is the source contribute their target to the downstream
// side, and each side's other-endpoint is traced at chain depth.
// Self-loops contribute to neither side.
func (e *TraceEngine) Chain(ctx context.Context, uid UID, opts ...TraceOption) (*ChainResult, error) {
	cfg := newTraceConfig(opts)

	relations, err := e.relations.FindByUID(ctx, uid)
	if err != nil {
		return nil, err
	}

	chain := &ChainResult{
		Upstream:   []TraceResult{},
		Downstream: []TraceResult{},
	}
	traceOpts := []TraceOption{
		WithMaxDepth(cfg.chainDepth),
		WithMaxVisits(cfg.maxVisits),
	}

	for i := range relations {
		rel := &relations[i]
		switch {
		case rel.TargetUID == uid && rel.SourceUID != uid:
			branch, err := e.Trace(ctx, rel.SourceUID, traceOpts...)
			if err != nil {
				return nil, err
			}
			chain.Upstream = append(chain.Upstream, branch...)
		case rel.SourceUID == uid && rel.TargetUID != uid:
			branch, err := e.Trace(ctx, rel.TargetUID, traceOpts...)
			if err != nil {
				return nil, err
			}
			chain.Downstream = append(chain.Downstream, branch...)
		}
	}

	return chain, nil
}

func copyVisited(visited map[UID]struct{}) map[UID]struct{} {
	out := make(map[UID]struct{}, len(visited))
	for uid := range visited {
		out[uid] = struct{}{}
	}
	return out
}
