package registry

// defaultListWindow is the listing window applied when a caller leaves
// from or to unset.
const defaultListWindow = 50

type coordRequestKind int

const (
	reqAppend coordRequestKind = iota
	reqList
	reqRead
	reqKeyIndex
	reqLines
	reqShutdown
)

type listBounds struct {
	from *uint32
	to   *uint32
}

type coordRequest struct {
	kind    coordRequestKind
	op      Operation
	bounds  listBounds
	readIdx uint32
	pubkey  PublicKey
	reply   chan coordResponse
}

type coordResponse struct {
	err   error
	ops   []Operation
	op    Operation
	idx   uint32
	lines []Line
}

// Coordinator is the single writer for a registry: one goroutine owns the
// LogStore and State, serializing every mutating request through a
// channel so that validate-append-process-broadcast is always atomic with
// respect to every other operation.
type Coordinator struct {
	requests chan coordRequest
	bcast    *broadcaster
	audit    *AuditStore // optional secondary sink, may be nil
}

// StartCoordinator opens (and heals) the log store at storePath,
// bootstraps state by replaying every stored operation starting from
// genesis, and launches the serializing goroutine. audit may be nil to
// disable the SQL mirror.
func StartCoordinator(storePath string, genesis PublicKey, audit *AuditStore) (*Coordinator, error) {
	store, err := OpenLogStore(storePath)
	if err != nil {
		return nil, err
	}

	state := NewState(genesis)
	ch, done, err := store.Iter()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	for op := range ch {
		Process(state, op)
	}
	if err := done(); err != nil {
		_ = store.Close()
		return nil, err
	}

	c := &Coordinator{
		requests: make(chan coordRequest),
		bcast:    newBroadcaster(),
		audit:    audit,
	}
	go c.serialize(store, state)
	return c, nil
}

func (c *Coordinator) serialize(store *LogStore, state *State) {
	for req := range c.requests {
		switch req.kind {
		case reqAppend:
			req.reply <- c.handleAppend(store, state, req.op)
		case reqList:
			req.reply <- c.handleList(store, req.bounds)
		case reqRead:
			req.reply <- c.handleRead(store, req.readIdx)
		case reqKeyIndex:
			req.reply <- c.handleKeyIndex(state, req.pubkey)
		case reqLines:
			req.reply <- c.handleLines(state)
		case reqShutdown:
			req.reply <- coordResponse{err: store.Close()}
			return
		}
	}
}

func (c *Coordinator) handleAppend(store *LogStore, state *State, op Operation) coordResponse {
	if err := Validate(state, op); err != nil {
		return coordResponse{err: err}
	}
	if _, err := store.Append(op); err != nil {
		return coordResponse{err: err}
	}
	Process(state, op)

	if c.audit != nil {
		// best-effort: the mirror is non-authoritative, so a failure here
		// must never roll back an append that is already durable in the log.
		_ = c.audit.Record(op)
	}

	c.bcast.publish(op)
	return coordResponse{}
}

func (c *Coordinator) handleList(store *LogStore, b listBounds) coordResponse {
	n := store.Len()
	var from, to uint32
	switch {
	case b.from != nil && b.to != nil:
		from, to = *b.from, *b.to
	case b.from != nil:
		from, to = *b.from, *b.from+defaultListWindow
	case b.to != nil:
		to = *b.to
		if to > defaultListWindow {
			from = to - defaultListWindow
		}
	default:
		from, to = 0, defaultListWindow
	}
	if to > n {
		to = n
	}

	ops, err := store.Range(from, to)
	if err != nil {
		return coordResponse{err: err}
	}
	return coordResponse{ops: ops}
}

func (c *Coordinator) handleRead(store *LogStore, idx uint32) coordResponse {
	op, err := store.Read(idx)
	if err != nil {
		return coordResponse{err: err}
	}
	return coordResponse{op: op}
}

func (c *Coordinator) handleKeyIndex(state *State, pk PublicKey) coordResponse {
	idx, ok := state.KeyIndexes[pk]
	if !ok {
		return coordResponse{err: errKind(KindUnknownKey, "key not found")}
	}
	return coordResponse{idx: idx}
}

func (c *Coordinator) handleLines(state *State) coordResponse {
	lines := make([]Line, 0, len(state.Lines))
	for _, l := range state.Lines {
		lines = append(lines, *l)
	}
	return coordResponse{lines: lines}
}

// AppendOperation validates, durably logs, applies, and broadcasts op. On
// a validation or I/O error, neither the log nor state is mutated.
func (c *Coordinator) AppendOperation(op Operation) error {
	reply := make(chan coordResponse, 1)
	c.requests <- coordRequest{kind: reqAppend, op: op, reply: reply}
	return (<-reply).err
}

// ListOperations resolves (from, to) to a bounded range using the
// default-window listing policy and returns the matching operations in
// log order.
func (c *Coordinator) ListOperations(from, to *uint32) ([]Operation, error) {
	reply := make(chan coordResponse, 1)
	c.requests <- coordRequest{kind: reqList, bounds: listBounds{from: from, to: to}, reply: reply}
	resp := <-reply
	return resp.ops, resp.err
}

// ReadOperation returns the single operation at entry index idx.
func (c *Coordinator) ReadOperation(idx uint32) (Operation, error) {
	reply := make(chan coordResponse, 1)
	c.requests <- coordRequest{kind: reqRead, readIdx: idx, reply: reply}
	resp := <-reply
	return resp.op, resp.err
}

// GetKeyIndex looks up pk's key-table index.
func (c *Coordinator) GetKeyIndex(pk PublicKey) (uint32, error) {
	reply := make(chan coordResponse, 1)
	c.requests <- coordRequest{kind: reqKeyIndex, pubkey: pk, reply: reply}
	resp := <-reply
	return resp.idx, resp.err
}

// GetLines returns a snapshot of every credit line.
func (c *Coordinator) GetLines() []Line {
	reply := make(chan coordResponse, 1)
	c.requests <- coordRequest{kind: reqLines, reply: reply}
	return (<-reply).lines
}

// Subscribe attaches a live-tail feed receiving every operation appended
// after this call returns.
func (c *Coordinator) Subscribe() *Subscription { return c.bcast.subscribe() }

// Unsubscribe detaches a previously attached feed.
func (c *Coordinator) Unsubscribe(sub *Subscription) { c.bcast.unsubscribe(sub) }

// Close stops the serializing goroutine and closes the underlying log
// store. No further requests may be sent afterward.
func (c *Coordinator) Close() error {
	reply := make(chan coordResponse, 1)
	c.requests <- coordRequest{kind: reqShutdown, reply: reply}
	return (<-reply).err
}
