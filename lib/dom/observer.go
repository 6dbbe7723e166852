package dom

// MutationType identifies the kind of a mutation record.
type MutationType string

const (
	MutationChildList  MutationType = "childList"
	MutationAttributes MutationType = "attributes"
)

// MutationRecord describes one tree or attribute mutation.
type MutationRecord struct {
	Type          MutationType
	Target        *Element
	AddedNodes    []*Element
	RemovedNodes  []*Element
	AttributeName string
	OldValue      string
}

// ObserveOptions selects which mutations an observer receives.
type ObserveOptions struct {
	ChildList  bool
	Attributes bool
	Subtree    bool
}

// MutationCallback receives batches of records in the order they were queued.
type MutationCallback func(records []MutationRecord, observer *MutationObserver)

// MutationObserver collects mutation records for the targets it observes.
// Records are delivered after the outermost DOM operation that produced them
// returns; records produced by the callback are delivered in the same pass.
type MutationObserver struct {
	doc          *Document
	callback     MutationCallback
	observations []observation
	records      []MutationRecord
}

type observation struct {
	target *Element
	opts   ObserveOptions
}

// NewMutationObserver creates an observer. It observes nothing until Observe
// is called.
func (d *Document) NewMutationObserver(callback MutationCallback) *MutationObserver {
	return &MutationObserver{doc: d, callback: callback}
}

// Observe starts observing target. Observing the same target again replaces
// its options.
func (o *MutationObserver) Observe(target *Element, opts ObserveOptions) {
	for i := range o.observations {
		if o.observations[i].target == target {
			o.observations[i].opts = opts
			return
		}
	}
	o.observations = append(o.observations, observation{target: target, opts: opts})

	for _, x := range o.doc.observers {
		if x == o {
			return
		}
	}
	o.doc.observers = append(o.doc.observers, o)
}

// Disconnect stops the observer and drops undelivered records.
func (o *MutationObserver) Disconnect() {
	o.observations = nil
	o.records = nil
	observers := o.doc.observers[:0]
	for _, x := range o.doc.observers {
		if x != o {
			observers = append(observers, x)
		}
	}
	o.doc.observers = observers
}

// TakeRecords returns and clears the undelivered records.
func (o *MutationObserver) TakeRecords() []MutationRecord {
	records := o.records
	o.records = nil
	return records
}

func (o *MutationObserver) interested(rec MutationRecord) bool {
	for _, obs := range o.observations {
		switch rec.Type {
		case MutationChildList:
			if !obs.opts.ChildList {
				continue
			}
		case MutationAttributes:
			if !obs.opts.Attributes {
				continue
			}
		}
		if rec.Target == obs.target || (obs.opts.Subtree && obs.target.Contains(rec.Target)) {
			return true
		}
	}
	return false
}

// queueRecord hands rec to every interested observer.
func (d *Document) queueRecord(rec MutationRecord) {
	if rec.Target == nil {
		return
	}
	for _, o := range d.observers {
		if o.interested(rec) {
			o.records = append(o.records, rec)
		}
	}
}
