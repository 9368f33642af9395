package storage

import "bamboo/configs"

// IncValue and DecValue record a deferred delta against the access most
// recently acquired through a TxnCommutative GetRow call: the row's lock
// manager already granted a CM lock rather than an ordinary exclusive one,
// so the delta folds into the row at cleanup time without ever having
// conflicted with another commutative or read access to the same row.
func (t *Transaction) IncValue(col uint, val float64) {
	t.recordComOp(ComInc, col, val)
}

func (t *Transaction) DecValue(col uint, val float64) {
	t.recordComOp(ComDec, col, val)
}

func (t *Transaction) recordComOp(op uint8, col uint, val float64) {
	configs.Assert(t.rowCnt > 0, "commutative op with no prior access")
	a := t.accesses[t.rowCnt-1]
	configs.Assert(a.Type == TxnCommutative, "commutative op on a non-commutative access")
	a.ComOp = op
	a.ComCol = col
	a.ComVal = val
}

// applyComOp folds a deferred commutative delta into data, the row's live
// value at cleanup time, rather than the access's own working copy: a
// commutative access never clones a pre-image, since the entire point of
// taking a CM lock instead of an exclusive one is to never need to look at
// what value a concurrent CM/read access might be sitting on.
func applyComOp(data *RowData, a *Access) {
	idx := a.ComCol
	cur, _ := data.GetAttribute(idx).(float64)
	switch a.ComOp {
	case ComInc:
		data.SetAttribute(idx, cur+a.ComVal)
	case ComDec:
		data.SetAttribute(idx, cur-a.ComVal)
	}
}
