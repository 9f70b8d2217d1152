// Package lineage provides application-level operations over the entity
// registry, the relation store and the trace engine.
package lineage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	domain "github.com/erp/lineage/internal/domain/lineage"
	"github.com/erp/lineage/internal/domain/shared"
	"github.com/erp/lineage/internal/infrastructure/telemetry"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LineageService provides application-level lineage operations
type LineageService struct {
	registry  domain.EntityRegistry
	relations domain.RelationRepository
	resolvers *domain.ResolverRegistry
	engine    *domain.TraceEngine
	logger    *zap.Logger

	maxDepth      int
	maxDepthLimit int
	chainDepth    int
	maxVisits     int
}

// LineageServiceOption is a functional option for configuring LineageService
type LineageServiceOption func(*LineageService)

// WithTraceDefaults overrides the traversal defaults applied when a caller
// does not bound a trace explicitly. maxDepthLimit caps caller-supplied
// depths.
func WithTraceDefaults(maxDepth, chainDepth, maxVisits, maxDepthLimit int) LineageServiceOption {
	return func(s *LineageService) {
		if maxDepth > 0 {
			s.maxDepth = maxDepth
		}
		if chainDepth > 0 {
			s.chainDepth = chainDepth
		}
		if maxVisits > 0 {
			s.maxVisits = maxVisits
		}
		if maxDepthLimit > 0 {
			s.maxDepthLimit = maxDepthLimit
		}
	}
}

// WithServiceLogger sets the logger used for non-fatal diagnostics
func WithServiceLogger(logger *zap.Logger) LineageServiceOption {
	return func(s *LineageService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewLineageService creates a new LineageService
func NewLineageService(
	registry domain.EntityRegistry,
	relations domain.RelationRepository,
	resolvers *domain.ResolverRegistry,
	engine *domain.TraceEngine,
	opts ...LineageServiceOption,
) *LineageService {
	s := &LineageService{
		registry:      registry,
		relations:     relations,
		resolvers:     resolvers,
		engine:        engine,
		logger:        zap.NewNop(),
		maxDepth:      domain.DefaultMaxDepth,
		maxDepthLimit: 2 * domain.DefaultMaxDepth,
		chainDepth:    domain.DefaultChainDepth,
		maxVisits:     domain.DefaultMaxVisits,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===================== Entity Operations =====================

// RegisterEntityRequest carries the snapshot of a new business entity
type RegisterEntityRequest struct {
	EntityType string          `json:"entity_type" binding:"required,entitytype"`
	RawStatus  string          `json:"raw_status" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Payload    map[string]any  `json:"payload,omitempty"`
}

// EntityResponse represents a registered entity in API responses
type EntityResponse struct {
	UID             string                `json:"uid"`
	EntityType      domain.EntityType     `json:"entity_type"`
	RawStatus       string                `json:"raw_status"`
	CanonicalStatus domain.BusinessStatus `json:"canonical_status,omitempty"`
	Amount          decimal.Decimal       `json:"amount"`
	Payload         map[string]any        `json:"payload,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// RegisterEntity mints a UID for the snapshot and persists it.
func (s *LineageService) RegisterEntity(ctx context.Context, req RegisterEntityRequest) (*EntityResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lineage", "register_entity")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrEntityType, req.EntityType,
		telemetry.SpanAttrStatus, req.RawStatus,
	)

	record, err := domain.NewEntityRecord(domain.EntityType(req.EntityType), req.RawStatus, req.Amount, req.Payload)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.registry.Save(ctx, record); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to register entity: %w", err)
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrEntityUID, record.UID)
	return s.toEntityResponse(record), nil
}

// GetEntity loads a registered entity with its resolved canonical status.
func (s *LineageService) GetEntity(ctx context.Context, uid string) (*EntityResponse, error) {
	record, err := s.findEntity(ctx, uid)
	if err != nil {
		return nil, err
	}
	return s.toEntityResponse(record), nil
}

// UpdateStatusRequest proposes a new raw status for an entity
type UpdateStatusRequest struct {
	RawStatus string `json:"raw_status" binding:"required"`
	Reason    string `json:"reason,omitempty"`
}

// UpdateEntityStatus commits a new raw status after validating that the
// implied canonical transition is legal. A no-op transition (the raw
// change resolves to the current canonical status) is allowed.
func (s *LineageService) UpdateEntityStatus(ctx context.Context, uid string, req UpdateStatusRequest) (*EntityResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lineage", "update_entity_status")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrEntityUID, uid,
		telemetry.SpanAttrStatus, req.RawStatus,
	)

	record, err := s.findEntity(ctx, uid)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	current, ok := s.resolvers.Resolve(record.EntityType, record.RawRecord())
	if !ok {
		telemetry.RecordError(span, domain.ErrResolverNotRegistered)
		return nil, domain.ErrResolverNotRegistered
	}

	proposedRaw := record.RawRecord()
	proposedRaw["raw_status"] = req.RawStatus
	proposed, _ := s.resolvers.Resolve(record.EntityType, proposedRaw)

	result := domain.Transition(current, proposed, req.Reason)
	if !result.Success {
		err := shared.NewDomainError("INVALID_STATUS_TRANSITION", result.Message)
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.registry.UpdateRawStatus(ctx, domain.UID(uid), req.RawStatus); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	record.RawStatus = req.RawStatus
	record.UpdatedAt = time.Now()
	return s.toEntityResponse(record), nil
}

func (s *LineageService) findEntity(ctx context.Context, uid string) (*domain.EntityRecord, error) {
	if _, err := domain.ParseUID(domain.UID(uid)); err != nil {
		return nil, err
	}
	record, err := s.registry.FindByUID(ctx, domain.UID(uid))
	if err != nil {
		return nil, fmt.Errorf("failed to load entity: %w", err)
	}
	if record == nil {
		return nil, shared.NewDomainError("ENTITY_NOT_FOUND", "no entity registered for uid "+uid)
	}
	return record, nil
}

func (s *LineageService) toEntityResponse(record *domain.EntityRecord) *EntityResponse {
	resp := &EntityResponse{
		UID:        record.UID,
		EntityType: record.EntityType,
		RawStatus:  record.RawStatus,
		Amount:     record.Amount,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
	if status, ok := s.resolvers.Resolve(record.EntityType, record.RawRecord()); ok {
		resp.CanonicalStatus = status
	} else {
		s.logger.Warn("No status resolver registered for entity type",
			zap.String("entity_type", string(record.EntityType)),
			zap.String("uid", string(record.UID)),
		)
	}
	if len(record.Payload) > 0 {
		var payload map[string]any
		if err := json.Unmarshal(record.Payload, &payload); err == nil {
			resp.Payload = payload
		}
	}
	return resp
}

// ===================== Relation Operations =====================

// LinkEntitiesRequest creates a directed relation edge between two UIDs
type LinkEntitiesRequest struct {
	SourceUID    string         `json:"source_uid" binding:"required"`
	TargetUID    string         `json:"target_uid" binding:"required"`
	RelationType string         `json:"relation_type" binding:"required"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// RelationResponse represents a relation edge in API responses
type RelationResponse struct {
	ID           uuid.UUID           `json:"id"`
	SourceUID    string              `json:"source_uid"`
	TargetUID    string              `json:"target_uid"`
	RelationType domain.RelationType `json:"relation_type"`
	Metadata     map[string]any      `json:"metadata,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
}

// LinkEntities appends a relation edge. Re-linking an existing edge is a
// silent success.
func (s *LineageService) LinkEntities(ctx context.Context, req LinkEntitiesRequest) (*RelationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lineage", "link_entities")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrRelationType, req.RelationType,
	)

	relation, err := domain.NewRelation(
		domain.UID(req.SourceUID),
		domain.UID(req.TargetUID),
		domain.RelationType(req.RelationType),
		req.Metadata,
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.relations.Add(ctx, relation); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to store relation: %w", err)
	}

	return toRelationResponse(relation), nil
}

// GetRelations returns every relation edge touching the given UID.
func (s *LineageService) GetRelations(ctx context.Context, uid string) ([]RelationResponse, error) {
	if _, err := domain.ParseUID(domain.UID(uid)); err != nil {
		return nil, err
	}

	relations, err := s.relations.FindByUID(ctx, domain.UID(uid))
	if err != nil {
		return nil, fmt.Errorf("failed to load relations: %w", err)
	}

	responses := make([]RelationResponse, 0, len(relations))
	for i := range relations {
		responses = append(responses, *toRelationResponse(&relations[i]))
	}
	return responses, nil
}

func toRelationResponse(relation *domain.Relation) *RelationResponse {
	resp := &RelationResponse{
		ID:           relation.ID,
		SourceUID:    string(relation.SourceUID),
		TargetUID:    string(relation.TargetUID),
		RelationType: relation.RelationType,
		CreatedAt:    relation.CreatedAt,
	}
	if metadata, err := relation.DecodeMetadata(); err == nil {
		resp.Metadata = metadata
	}
	return resp
}

// ===================== Trace Operations =====================

// TraceLineage runs a bounded traversal from the given UID. maxDepth <= 0
// uses the configured default; caller-supplied depths are capped at the
// configured limit.
func (s *LineageService) TraceLineage(ctx context.Context, uid string, maxDepth int) ([]domain.TraceResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lineage", "trace")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrEntityUID, uid)

	if maxDepth <= 0 {
		maxDepth = s.maxDepth
	}
	if maxDepth > s.maxDepthLimit {
		maxDepth = s.maxDepthLimit
	}
	telemetry.SetAttribute(span, telemetry.SpanAttrMaxDepth, maxDepth)

	results, err := s.engine.Trace(ctx, domain.UID(uid),
		domain.WithMaxDepth(maxDepth),
		domain.WithMaxVisits(s.maxVisits),
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttribute(span, telemetry.SpanAttrNodeCount, len(results))
	return results, nil
}

// GetChain partitions a record's lineage into upstream and downstream
// entities, each traced at the configured chain depth.
func (s *LineageService) GetChain(ctx context.Context, uid string) (*domain.ChainResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "lineage", "chain")
	defer span.End()
	telemetry.SetAttribute(span, telemetry.SpanAttrEntityUID, uid)

	chain, err := s.engine.Chain(ctx, domain.UID(uid),
		domain.WithChainDepth(s.chainDepth),
		domain.WithMaxVisits(s.maxVisits),
	)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return chain, nil
}

// ===================== Status Machine Views =====================

// ValidateTransitionRequest proposes a canonical status transition
type ValidateTransitionRequest struct {
	From   string `json:"from" binding:"required,status"`
	To     string `json:"to" binding:"required,status"`
	Reason string `json:"reason,omitempty"`
}

// ValidateTransition checks a proposed canonical transition without
// touching any entity.
func (s *LineageService) ValidateTransition(req ValidateTransitionRequest) domain.TransitionResult {
	return domain.Transition(domain.BusinessStatus(req.From), domain.BusinessStatus(req.To), req.Reason)
}

// StatusTransitionsResponse lists the legal next states of a status
type StatusTransitionsResponse struct {
	Status      domain.BusinessStatus   `json:"status"`
	Terminal    bool                    `json:"terminal"`
	Transitions []domain.BusinessStatus `json:"transitions"`
}

// AvailableTransitions returns the legal next states for a canonical status.
func (s *LineageService) AvailableTransitions(status string) (*StatusTransitionsResponse, error) {
	canonical := domain.BusinessStatus(status)
	if !canonical.IsValid() {
		return nil, shared.NewDomainError("UNKNOWN_STATUS", "unknown business status: "+status)
	}
	return &StatusTransitionsResponse{
		Status:      canonical,
		Terminal:    canonical.IsTerminal(),
		Transitions: domain.AvailableTransitions(canonical),
	}, nil
}

// StatusActionsResponse lists which business actions a status allows
type StatusActionsResponse struct {
	Status  domain.BusinessStatus  `json:"status"`
	Actions map[domain.Action]bool `json:"actions"`
}

// AllowedActions reports, for every gated business action, whether the
// given canonical status allows it.
func (s *LineageService) AllowedActions(status string) (*StatusActionsResponse, error) {
	canonical := domain.BusinessStatus(status)
	if !canonical.IsValid() {
		return nil, shared.NewDomainError("UNKNOWN_STATUS", "unknown business status: "+status)
	}
	actions := make(map[domain.Action]bool, len(domain.AllActions()))
	for _, action := range domain.AllActions() {
		actions[action] = domain.CanPerformAction(canonical, action)
	}
	return &StatusActionsResponse{Status: canonical, Actions: actions}, nil
}
