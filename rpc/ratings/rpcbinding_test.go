package ratings

import (
	"errors"
	"math/big"
	"testing"

	"github.com/google/uuid"
	"github.com/nspcc-dev/neo-go/pkg/core/state"
	"github.com/nspcc-dev/neo-go/pkg/neorpc/result"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/nspcc-dev/neo-go/pkg/vm/stackitem"
	"github.com/stretchr/testify/require"
)

type testInv struct {
	err error
	res *result.Invoke

	method string
	params []any

	pages      [][]stackitem.Item
	terminated []uuid.UUID
}

func (t *testInv) Call(contract util.Uint160, operation string, params ...any) (*result.Invoke, error) {
	t.method, t.params = operation, params
	return t.res, t.err
}

func (t *testInv) CallAndExpandIterator(contract util.Uint160, operation string, i int, params ...any) (*result.Invoke, error) {
	t.method, t.params = operation, params
	return t.res, t.err
}

func (t *testInv) TraverseIterator(uuid.UUID, *result.Iterator, int) ([]stackitem.Item, error) {
	if len(t.pages) == 0 {
		return nil, nil
	}
	p := t.pages[0]
	t.pages = t.pages[1:]
	return p, nil
}

func (t *testInv) TerminateSession(id uuid.UUID) error {
	t.terminated = append(t.terminated, id)
	return nil
}

func halt(items ...stackitem.Item) *result.Invoke {
	return &result.Invoke{State: "HALT", Stack: items}
}

func TestReaderGetRequest(t *testing.T) {
	ti := new(testInv)
	r := NewReader(ti, util.Uint160{1, 2, 3})

	ti.err = errors.New("bad")
	_, err := r.GetRequest(util.Uint256{1})
	require.Error(t, err)

	investor := util.Uint160{9, 8, 7}
	ti.err = nil
	ti.res = halt(stackitem.NewStruct([]stackitem.Item{
		stackitem.Make(investor.BytesBE()),
		stackitem.Make("Augur ICO"),
		stackitem.Make("Augur is ambitious"),
		stackitem.Make("AUG"),
		stackitem.Make("http://something"),
		stackitem.Make("Qmskjdfhsdjkf"),
		stackitem.Make(1485708344),
		stackitem.Make(15_000_000),
		stackitem.Make(1),
		stackitem.Make(0),
		stackitem.Make(0),
		stackitem.Make(0),
	}))

	req, err := r.GetRequest(util.Uint256{1})
	require.NoError(t, err)
	require.Equal(t, "getRequest", ti.method)
	require.Equal(t, []any{util.Uint256{1}}, ti.params)
	require.Equal(t, investor, req.Investor)
	require.Equal(t, "Augur ICO", req.Name)
	require.Equal(t, "http://something", req.URL)
	require.Equal(t, big.NewInt(1485708344), req.Deadline)
	require.Equal(t, big.NewInt(15_000_000), req.Reward)
	require.Equal(t, int64(0), req.Status.Int64())

	ti.res = halt(stackitem.NewStruct([]stackitem.Item{stackitem.Make(1)}))
	_, err = r.GetRequest(util.Uint256{1})
	require.Error(t, err)
}

func TestReaderGetMembership(t *testing.T) {
	ti := new(testInv)
	r := NewReader(ti, util.Uint160{1, 2, 3})

	auditor := util.Uint160{4, 5, 6}
	ti.res = halt(stackitem.NewStruct([]stackitem.Item{
		stackitem.Make(auditor.BytesBE()),
		stackitem.Make(true),
		stackitem.Make(77),
		stackitem.Make("QmPointer"),
		stackitem.Make(2),
	}))

	m, err := r.GetMembership(util.Uint256{1}, auditor)
	require.NoError(t, err)
	require.Equal(t, []any{util.Uint256{1}, auditor}, ti.params)
	require.True(t, m.Joined)
	require.Equal(t, auditor, m.Auditor)
	require.Equal(t, int64(77), m.Rating.Int64())
	require.Equal(t, "QmPointer", m.Pointer)

	ti.res = halt(stackitem.NewStruct([]stackitem.Item{
		stackitem.Make([]byte{1, 2}),
		stackitem.Make(true),
		stackitem.Make(77),
		stackitem.Make("QmPointer"),
		stackitem.Make(2),
	}))
	_, err = r.GetMembership(util.Uint256{1}, auditor)
	require.ErrorContains(t, err, "field Auditor")
}

func TestReaderRequestKeys(t *testing.T) {
	ti := new(testInv)
	r := NewReader(ti, util.Uint160{1, 2, 3})

	sess := uuid.New()
	iter := result.Iterator{ID: &sess}
	ti.res = &result.Invoke{
		State:   "HALT",
		Session: sess,
		Stack:   []stackitem.Item{stackitem.NewInterop(iter)},
	}

	k1, k2, k3 := util.Uint256{1}, util.Uint256{2}, util.Uint256{3}
	ti.pages = [][]stackitem.Item{
		{stackitem.Make(k1.BytesBE()), stackitem.Make(k2.BytesBE())},
		{stackitem.Make(k3.BytesBE())},
	}

	keys, err := r.RequestKeys(2)
	require.NoError(t, err)
	require.Equal(t, []util.Uint256{k1, k2, k3}, keys)
	require.Equal(t, []uuid.UUID{sess}, ti.terminated)

	for _, size := range []int{0, -1} {
		ti.terminated = nil
		_, err = r.RequestKeys(size)
		require.ErrorContains(t, err, "invalid page size")
		require.Empty(t, ti.terminated)
	}
}

func TestKeysFromItems(t *testing.T) {
	_, err := KeysFromItems([]stackitem.Item{stackitem.Make([]byte{1})})
	require.Error(t, err)

	keys, err := KeysFromItems(nil)
	require.NoError(t, err)
	require.Empty(t, keys)
}

func TestEventsFromApplicationLog(t *testing.T) {
	_, err := RequestSubmittedEventsFromApplicationLog(nil)
	require.Error(t, err)

	key := util.Uint256{0xaa}
	investor := util.Uint160{0xbb}
	log := &result.ApplicationLog{
		Executions: []state.Execution{{
			Events: []state.NotificationEvent{
				{
					Name: "Transfer",
					Item: stackitem.NewArray([]stackitem.Item{stackitem.Make(1)}),
				},
				{
					Name: "RequestSubmitted",
					Item: stackitem.NewArray([]stackitem.Item{
						stackitem.Make(key.BytesBE()),
						stackitem.Make(investor.BytesBE()),
						stackitem.Make(10_000_000),
						stackitem.Make(1485708344),
						stackitem.Make(1),
					}),
				},
				{
					Name: "Contributed",
					Item: stackitem.NewArray([]stackitem.Item{
						stackitem.Make(key.BytesBE()),
						stackitem.Make(investor.BytesBE()),
						stackitem.Make(5_000_000),
						stackitem.Make(15_000_000),
					}),
				},
				{
					Name: "PaidOut",
					Item: stackitem.NewArray([]stackitem.Item{
						stackitem.Make(key.BytesBE()),
						stackitem.Make(investor.BytesBE()),
						stackitem.Make(42),
					}),
				},
			},
		}},
	}

	submitted, err := RequestSubmittedEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Len(t, submitted, 1)
	require.Equal(t, key, submitted[0].Key)
	require.Equal(t, investor, submitted[0].Investor)
	require.Equal(t, int64(10_000_000), submitted[0].Reward.Int64())

	contributed, err := ContributedEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Len(t, contributed, 1)
	require.Equal(t, int64(15_000_000), contributed[0].Total.Int64())

	paid, err := PaidOutEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Len(t, paid, 1)
	require.Equal(t, int64(42), paid[0].Amount.Int64())

	refunded, err := RefundedEventsFromApplicationLog(log)
	require.NoError(t, err)
	require.Empty(t, refunded)

	log.Executions[0].Events[1].Item = stackitem.NewArray([]stackitem.Item{stackitem.Make(1)})
	_, err = RequestSubmittedEventsFromApplicationLog(log)
	require.ErrorContains(t, err, "event #1")
}

func TestSubmitRequestData(t *testing.T) {
	data := SubmitRequestData("Augur ICO", "Augur is ambitious", "AUG", "http://something", 1485708344, 1, "Qmskjdfhsdjkf")
	require.Equal(t, []any{"submit", "Augur ICO", "Augur is ambitious", "AUG", "http://something",
		int64(1485708344), int64(1), "Qmskjdfhsdjkf"}, data)

	require.Equal(t, []any{"contribute", util.Uint256{1}}, ContributeData(util.Uint256{1}))
}

func TestRequestKey(t *testing.T) {
	investor := util.Uint160{1, 2, 3}

	k := RequestKey(investor, "AUG", "Augur ICO", "Qmskjdfhsdjkf", 1485708344)
	require.Equal(t, k, RequestKey(investor, "AUG", "Augur ICO", "Qmskjdfhsdjkf", 1485708344))
	require.NotEqual(t, k, RequestKey(investor, "AUG", "Augur ICO", "Qmskjdfhsdjkf", 1485708345))
	require.NotEqual(t, k, RequestKey(util.Uint160{1}, "AUG", "Augur ICO", "Qmskjdfhsdjkf", 1485708344))
}
