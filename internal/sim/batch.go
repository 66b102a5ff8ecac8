package sim

import (
	"fmt"

	"plantsim/internal/models"
)

// qtyEpsilon absorbs float rounding when comparing material quantities.
const qtyEpsilon = 1e-9

// StageResult is the outcome an operator (or inspection collaborator)
// records when a batch passes through a machine stage.
type StageResult struct {
	Passed      bool
	QtyConsumed float64
	QtyProduced float64
}

type batchStage struct {
	machineID string
	outcome   models.StageOutcome
	qtyIn     float64
	qtyOut    float64
	consumed  float64 // portion of qtyOut already drawn by downstream stages
}

func (s *batchStage) available() float64 { return s.qtyOut - s.consumed }

// Batch groups one run of material through an ordered sequence of machine
// stages with quality gates. A failed gate blocks the batch at that point;
// the record is kept for audit and retry is an explicit operator decision.
type Batch struct {
	id       string
	quantity float64 // material available to the first stage
	drawn    float64 // portion of quantity consumed by the first stage
	state    models.BatchState
	stages   []*batchStage
	index    map[string]int
}

// NewBatch validates the batch definition. The path must name at least one
// stage and must not visit the same machine twice.
func NewBatch(id string, quantity float64, path []string) (*Batch, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: batch id is empty", ErrInvalidConfiguration)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: batch %s: quantity must be > 0", ErrInvalidConfiguration, id)
	}
	if len(path) == 0 {
		return nil, fmt.Errorf("%w: batch %s: empty stage path", ErrInvalidConfiguration, id)
	}
	b := &Batch{
		id:       id,
		quantity: quantity,
		state:    models.BatchActive,
		index:    make(map[string]int, len(path)),
	}
	for i, machineID := range path {
		if _, dup := b.index[machineID]; dup {
			return nil, fmt.Errorf("%w: batch %s: machine %s appears twice in path", ErrInvalidConfiguration, id, machineID)
		}
		b.index[machineID] = i
		b.stages = append(b.stages, &batchStage{machineID: machineID, outcome: models.StagePending})
	}
	return b, nil
}

func (b *Batch) ID() string               { return b.id }
func (b *Batch) State() models.BatchState { return b.state }

func (b *Batch) stage(machineID string) *batchStage {
	i, ok := b.index[machineID]
	if !ok {
		return nil
	}
	return b.stages[i]
}

// CurrentStage returns the machine id of the first pending stage, or "" when
// every stage has an outcome.
func (b *Batch) CurrentStage() string {
	for _, s := range b.stages {
		if s.outcome == models.StagePending {
			return s.machineID
		}
	}
	return ""
}

// Snapshot returns a detached read-only view of the batch.
func (b *Batch) Snapshot() models.BatchSnapshot {
	out := models.BatchSnapshot{
		ID:       b.id,
		State:    b.state,
		Quantity: b.quantity,
		Stages:   make([]models.StageSnapshot, len(b.stages)),
	}
	for i, s := range b.stages {
		out.Stages[i] = models.StageSnapshot{
			MachineID: s.machineID,
			Outcome:   s.outcome,
			QtyIn:     s.qtyIn,
			QtyOut:    s.qtyOut,
		}
	}
	return out
}

// Tracker owns all batches of a campaign and enforces material conservation
// across their stages. It is driven through the engine, which serializes
// access.
type Tracker struct {
	graph   *Graph
	batches map[string]*Batch
	order   []string
}

func NewTracker(graph *Graph) *Tracker {
	return &Tracker{
		graph:   graph,
		batches: make(map[string]*Batch),
	}
}

// Add registers a batch. Batch ids must be unique.
func (t *Tracker) Add(b *Batch) error {
	if _, dup := t.batches[b.id]; dup {
		return fmt.Errorf("%w: duplicate batch id %s", ErrInvalidConfiguration, b.id)
	}
	t.batches[b.id] = b
	t.order = append(t.order, b.id)
	return nil
}

// Get looks a batch up by id.
func (t *Tracker) Get(id string) (*Batch, error) {
	b, ok := t.batches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBatch, id)
	}
	return b, nil
}

// BatchAt returns the first active batch whose next pending stage is the
// given machine, in batch registration order. Nil when no batch is staged
// there.
func (t *Tracker) BatchAt(machineID string) *Batch {
	for _, id := range t.order {
		b := t.batches[id]
		if b.state != models.BatchActive {
			continue
		}
		if b.CurrentStage() == machineID {
			return b
		}
	}
	return nil
}

// AdvanceStage records the pass/fail outcome and material quantities for a
// batch at a machine. On a conservation violation nothing is recorded, the
// batch is blocked and ErrMaterialConservation is returned. A failed quality
// gate records the outcome and blocks the batch without destroying it.
func (t *Tracker) AdvanceStage(batchID, machineID string, res StageResult) error {
	b, err := t.Get(batchID)
	if err != nil {
		return err
	}
	st := b.stage(machineID)
	if st == nil {
		return fmt.Errorf("%w: batch %s has no stage at machine %s", ErrUnknownMachine, batchID, machineID)
	}
	if st.outcome != models.StagePending {
		return fmt.Errorf("%w: batch %s stage %s is %s", ErrStageAlreadyRecorded, batchID, machineID, st.outcome)
	}
	if res.QtyConsumed < 0 || res.QtyProduced < 0 {
		return fmt.Errorf("%w: negative material quantity", ErrInvalidConfiguration)
	}

	sources := t.sources(b, machineID)
	if avail := availableFrom(b, sources, machineID); res.QtyConsumed > avail+qtyEpsilon {
		b.state = models.BatchBlocked
		return fmt.Errorf("%w: batch %s at %s consumes %.3f, only %.3f available upstream",
			ErrMaterialConservation, batchID, machineID, res.QtyConsumed, avail)
	}

	t.draw(b, sources, machineID, res.QtyConsumed)
	st.qtyIn = res.QtyConsumed
	st.qtyOut = res.QtyProduced
	if !res.Passed {
		st.outcome = models.StageFailed
		b.state = models.BatchBlocked
		return nil
	}
	st.outcome = models.StagePassed
	if b.CurrentStage() == "" {
		b.state = models.BatchComplete
	}
	return nil
}

// RetryStage is the explicit operator decision to re-run a blocked batch.
// A failed stage returns to PENDING; a batch blocked by a conservation
// violation (stage still pending) is simply reactivated.
func (t *Tracker) RetryStage(batchID, machineID string) error {
	b, err := t.Get(batchID)
	if err != nil {
		return err
	}
	st := b.stage(machineID)
	if st == nil {
		return fmt.Errorf("%w: batch %s has no stage at machine %s", ErrUnknownMachine, batchID, machineID)
	}
	if b.state != models.BatchBlocked {
		return fmt.Errorf("batch %s is %s, nothing to retry", batchID, b.state)
	}
	if st.outcome == models.StageFailed {
		st.outcome = models.StagePending
		st.qtyIn, st.qtyOut = 0, 0
	}
	b.state = models.BatchActive
	return nil
}

// Snapshots returns detached views of all batches in registration order.
func (t *Tracker) Snapshots() []models.BatchSnapshot {
	out := make([]models.BatchSnapshot, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.batches[id].Snapshot())
	}
	return out
}

// sources resolves which upstream stages feed the given machine for this
// batch: graph edges when declared, otherwise the previous stage in the
// batch path. The first stage draws from the batch's own quantity.
func (t *Tracker) sources(b *Batch, machineID string) []*batchStage {
	if t.graph != nil {
		var ups []*batchStage
		for _, e := range t.graph.Upstream(machineID) {
			if st := b.stage(e.Upstream); st != nil {
				ups = append(ups, st)
			}
		}
		if len(ups) > 0 {
			return ups
		}
	}
	i := b.index[machineID]
	if i == 0 {
		return nil // fed by the batch pool
	}
	return []*batchStage{b.stages[i-1]}
}

func availableFrom(b *Batch, sources []*batchStage, machineID string) float64 {
	if len(sources) == 0 && b.index[machineID] == 0 {
		return b.quantity - b.drawn
	}
	var avail float64
	for _, s := range sources {
		avail += s.available()
	}
	return avail
}

// draw deducts the consumed quantity from the feeding stages, greedily in
// source order. Callers have already verified availability.
func (t *Tracker) draw(b *Batch, sources []*batchStage, machineID string, qty float64) {
	if len(sources) == 0 && b.index[machineID] == 0 {
		b.drawn += qty
		return
	}
	remaining := qty
	for _, s := range sources {
		if remaining <= 0 {
			break
		}
		take := s.available()
		if take > remaining {
			take = remaining
		}
		s.consumed += take
		remaining -= take
	}
}
