// Package model holds the plain data types shared across the pipeline:
// the wire-level Chunk the instrument delivers, the Result a caller/aligner
// enrich as they process it, and the small enums (Strand, Action, Decision)
// the decision engine and action tracker operate over.
package model

import "fmt"

// Strand is the sequencing strand an alignment landed on.
type Strand int8

const (
	StrandForward Strand = 1
	StrandReverse Strand = -1
)

func (s Strand) String() string {
	if s == StrandReverse {
		return "-"
	}
	return "+"
}

// ParseStrand accepts the encodings a target file or an aligner plugin
// might hand back: "+"/"-", +1/-1, or the Strand type itself.
func ParseStrand(v any) (Strand, error) {
	switch t := v.(type) {
	case Strand:
		return t, nil
	case string:
		switch t {
		case "+":
			return StrandForward, nil
		case "-":
			return StrandReverse, nil
		}
	case int:
		switch t {
		case 1:
			return StrandForward, nil
		case -1:
			return StrandReverse, nil
		}
	}
	return 0, fmt.Errorf("unrecognized strand: %v", v)
}

// Action is one of the three commands the driver may dispatch back to the
// instrument for a read.
type Action string

const (
	ActionUnblock       Action = "unblock"
	ActionStopReceiving Action = "stop_receiving"
	ActionProceed       Action = "proceed"
)

func (a Action) Valid() bool {
	switch a {
	case ActionUnblock, ActionStopReceiving, ActionProceed:
		return true
	}
	return false
}

// Decision is the classification the decision engine assigns a Result
// before looking the action up in the condition's action table.
type Decision string

const (
	DecisionSingleOn       Decision = "single_on"
	DecisionMultiOn        Decision = "multi_on"
	DecisionSingleOff      Decision = "single_off"
	DecisionMultiOff       Decision = "multi_off"
	DecisionNoMap          Decision = "no_map"
	DecisionNoSeq          Decision = "no_seq"
	DecisionAboveMaxChunks Decision = "above_max_chunks"
	DecisionBelowMinChunks Decision = "below_min_chunks"
)

// Chunk is one delivery of raw signal from the instrument for a read in
// progress. Chunks sharing (Channel, ReadNumber) belong to the same read;
// ReadID is the instrument's opaque identifier for that read.
type Chunk struct {
	Channel       int
	ReadNumber    int
	ReadID        string
	RawSignal     []byte
	SampleStart   int64
	ChunkLength   int
	MedianBefore  float64
	Median        float64
}

// Alignment is one hit an aligner plugin reports for a Result.
type Alignment struct {
	Contig         string
	Strand         Strand
	RStart         int
	REnd           int
	MappingQuality int
}

// QueryCoord returns the coordinate the decision engine uses to test this
// alignment against a target index: the 3' end of the read on the
// sequencing strand — r_en going forward, r_st going
// backward, since that is how far the molecule has actually translocated.
func (a Alignment) QueryCoord() int {
	if a.Strand == StrandReverse {
		return a.RStart
	}
	return a.REnd
}

// Result is a basecalled read, optionally enriched with alignments and a
// decision. Caller plugins produce it with Sequence/Quality/Barcode set;
// aligner plugins fill in AlignmentData; the decision engine sets Decision.
type Result struct {
	ReadID        string
	Channel       int
	ReadNumber    int
	Barcode       string
	Sequence      string
	Quality       []byte
	AlignmentData []Alignment
	Decision      Decision
	// BasecallError is set when the caller could not basecall this chunk;
	// Sequence is empty in that case and the decision engine classifies it
	// no_seq regardless of AlignmentData.
	BasecallError string
}

func (r Result) String() string {
	return fmt.Sprintf("Result{channel=%d read=%d barcode=%q decision=%s}", r.Channel, r.ReadNumber, r.Barcode, r.Decision)
}
