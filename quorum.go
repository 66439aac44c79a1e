package riak

import "github.com/pior/riak/pb"

// Symbolic quorum values understood by the store, usable anywhere a replica
// count is expected.
const (
	QuorumOne      uint32 = 4294967294 // a single replica
	QuorumMajority uint32 = 4294967293 // n_val/2 + 1 replicas
	QuorumAll      uint32 = 4294967292 // all n_val replicas
	QuorumDefault  uint32 = 4294967291 // the bucket's setting
)

type quorumParam uint8

const (
	paramR quorumParam = iota
	paramW
	paramPR
	paramPW
	paramDW
	paramRW
	paramN
	numQuorumParams
)

// Quorum holds per-operation consistency overrides. The zero value leaves
// everything to the bucket defaults, with basic quorum enabled.
//
// Quorum is a value: each setter returns a modified copy.
//
//	q := riak.Quorum{}.R(2).PR(1)
//
// Each operation only sends the parameters it supports: R, PR, N and
// BasicQuorum for Get; W, DW, PW and N for Put; all but BasicQuorum for Delete.
type Quorum struct {
	values  [numQuorumParams]uint32
	set     uint8
	noBasic bool
}

func (q Quorum) with(p quorumParam, v uint32) Quorum {
	q.values[p] = v
	q.set |= 1 << p
	return q
}

// R is the number of replicas that must answer a read.
func (q Quorum) R(v uint32) Quorum { return q.with(paramR, v) }

// W is the number of replicas that must acknowledge a write.
func (q Quorum) W(v uint32) Quorum { return q.with(paramW, v) }

// PR is the number of primary replicas that must answer a read.
func (q Quorum) PR(v uint32) Quorum { return q.with(paramPR, v) }

// PW is the number of primary replicas that must acknowledge a write.
func (q Quorum) PW(v uint32) Quorum { return q.with(paramPW, v) }

// DW is the number of replicas that must persist a write durably.
func (q Quorum) DW(v uint32) Quorum { return q.with(paramDW, v) }

// RW is the quorum for both phases of a delete.
func (q Quorum) RW(v uint32) Quorum { return q.with(paramRW, v) }

// N is the number of replicas to involve.
func (q Quorum) N(v uint32) Quorum { return q.with(paramN, v) }

// BasicQuorum makes reads return early when a quorum of replicas is not found.
func (q Quorum) BasicQuorum(enabled bool) Quorum {
	q.noBasic = !enabled
	return q
}

func (q Quorum) get(p quorumParam) *uint32 {
	if q.set&(1<<p) == 0 {
		return nil
	}
	return pb.Uint32(q.values[p])
}

func (q Quorum) basicQuorum() bool {
	return !q.noBasic
}
