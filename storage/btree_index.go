package storage

import (
	"errors"
	"fmt"

	"bamboo/configs"
	"bamboo/locks"
)

// IndexAccessType selects how findLeaf latches its path: lock-free reads
// bypass latching entirely, plain reads release latches as they descend,
// and updates keep latch-coupling back to the highest node that might
// split.
type IndexAccessType uint8

const (
	IndexNone IndexAccessType = iota
	IndexUpdate
	IndexRead
)

var (
	ErrPointerHashReachedLimit = errors.New("the pointer has reached the limit, no more item")
	ErrShouldBeLeaf            = errors.New("current node should be the leaf node")
	ErrKeyNotFound             = errors.New("the key is not found in the index")
	ErrIndexAbort              = errors.New("index access aborted by a concurrent structural change")
	ErrNodeIsNotFound          = errors.New("a child node is not found")
)

type Node struct {
	lock   *locks.NodeLatch
	size   uint32
	isLeaf bool
	data   []*RowRecord
	keys   []Key
	maxi   Key
	next   *Node
	parent *Node

	pointers []*Node

	from *BTree
}

func (c *Node) Iterator(key Key) (*Iterator, error) {
	it := &Iterator{key: key, offset: 0, node: c}
	if !c.isLeaf {
		return it, nil
	}
	for i := uint32(0); i < c.size; i++ {
		if c.keys[i] == key {
			it.offset = i
			return it, nil
		}
	}
	return it, ErrKeyNotFound
}

// BTree is a concurrent primary index using latch-coupling descent, kept
// as the substrate every Table uses to map primary keys to RowRecords.
type BTree struct {
	order     uint32
	root      *Node
	indexName string
	rootLatch *locks.NodeLatch
}

func NewBTree(indexName string) *BTree {
	tree := &BTree{order: uint32(configs.BTreeOrder), indexName: indexName}
	tree.root = tree.NewNode(true)
	tree.rootLatch = locks.NewLatch()
	return tree
}

func (t *BTree) setRoot(node *Node) {
	t.rootLatch.Lock()
	defer t.rootLatch.Unlock()
	t.root = node
}

func (t *BTree) getRoot() *Node {
	t.rootLatch.RLock()
	defer t.rootLatch.RUnlock()
	return t.root
}

func (t *BTree) NewNode(asLeaf bool) *Node {
	res := &Node{from: t, isLeaf: asLeaf, lock: locks.NewLatch()}
	res.keys = make([]Key, t.order)
	if asLeaf {
		res.data = make([]*RowRecord, t.order)
	} else {
		res.pointers = make([]*Node, t.order)
	}
	return res
}

// clearLock4Path clears the latches held along the path from "from" up to
// (but not including) "to", used once a subtree is known not to split
// after all.
func (t *BTree) clearLock4Path(from *Node, to *Node) {
	if to == nil {
		return
	}
	for from != to {
		from = from.parent
		if from == nil {
			break
		}
		from.lock.ClearOnce()
	}
}

func (t *BTree) findLeaf(key Key, accessType IndexAccessType) (*Node, *Iterator, error) {
	c := t.getRoot()
	var splitNode *Node
	var i uint32
	if accessType == IndexNone {
		for !c.isLeaf {
			for i = 0; i < c.size && c.keys[i] < key; i++ {
			}
			c = c.pointers[i]
		}
		it, err := c.Iterator(key)
		if err != nil {
			return nil, nil, err
		}
		return splitNode, it, nil
	}
	if !c.lock.TryRLock() {
		return splitNode, nil, ErrIndexAbort
	}
	for !c.isLeaf {
		for i = 0; i < c.size && c.keys[i] < key; i++ {
		}
		child := c.pointers[i]
		if child == nil {
			return splitNode, nil, ErrNodeIsNotFound
		}
		configs.Assert(child.parent == c, "parent pointer is not updated on time")
		if !child.lock.TryRLock() {
			t.clearLock4Path(c, splitNode)
			splitNode = nil
			c.lock.RUnlock()
			return splitNode, nil, ErrIndexAbort
		}
		if accessType == IndexRead {
			c.lock.RUnlock()
		} else {
			if child.size == t.order-1 {
				if !c.lock.UpgradeLock() {
					t.clearLock4Path(c, splitNode)
					c.lock.RUnlock()
					child.lock.RUnlock()
					splitNode = nil
					return splitNode, nil, ErrIndexAbort
				}
				if splitNode == nil {
					splitNode = c
				}
			} else {
				t.clearLock4Path(c, splitNode)
				c.lock.RUnlock()
				splitNode = nil
			}
		}
		c = child
	}

	if !c.isLeaf {
		panic(ErrShouldBeLeaf)
	}
	if accessType == IndexUpdate && !c.lock.UpgradeLock() {
		t.clearLock4Path(c, splitNode)
		c.lock.RUnlock()
		return splitNode, nil, ErrIndexAbort
	}
	it, err := c.Iterator(key)
	if err != nil && !(err == ErrKeyNotFound && accessType == IndexUpdate) {
		t.clearLock4Path(c, splitNode)
		c.lock.RUnlock()
		return nil, nil, err
	}
	return splitNode, it, nil
}

func (t *BTree) IndexRead(key Key) (*RowRecord, error) {
	_, itr, err := t.findLeaf(key, IndexRead)
	if err != nil {
		return nil, err
	}
	res := itr.Value()
	itr.Free()
	return res, nil
}

func (t *BTree) IndexInsert(key Key, value *RowRecord) error {
	splitNode, it, err := t.findLeaf(key, IndexUpdate)
	if err != nil {
		return err
	}
	return t.insertIntoLeaf(it, key, value, splitNode)
}

func (t *BTree) createNewRoot(left *Node, right *Node) error {
	newRoot := t.NewNode(false)
	newRoot.keys[0] = left.maxi
	newRoot.pointers[0] = left
	newRoot.pointers[1] = right
	newRoot.maxi = right.maxi
	newRoot.size++
	configs.Assert(newRoot.size < t.order, "too many nodes in new root")
	left.next = right
	left.parent = newRoot
	right.parent = newRoot
	t.setRoot(newRoot)
	return nil
}

func (c *Node) cutRightFrom(fullNode *Node) {
	configs.Assert(fullNode.size == c.from.order-1, "trying to split a not full leaf")
	fullNode.size = c.from.order / 2
	if !c.isLeaf {
		copy(c.keys, fullNode.keys[fullNode.size+1:])
		copy(c.pointers, fullNode.pointers[fullNode.size+1:])
		c.size = c.from.order - fullNode.size - 2
		c.maxi = fullNode.maxi
		fullNode.maxi = fullNode.pointers[fullNode.size].maxi
		for i := uint32(0); i <= c.size; i++ {
			c.pointers[i].parent = c
		}
	} else {
		copy(c.keys, fullNode.keys[fullNode.size:])
		copy(c.data, fullNode.data[fullNode.size:])
		c.size = c.from.order - fullNode.size - 1
		c.maxi = fullNode.maxi
		fullNode.maxi = fullNode.keys[fullNode.size-1]
	}
}

func (c *Node) merge(insertPoint uint32, key Key, value interface{}) {
	if !c.isLeaf {
		cur := value.(*Node)
		cur.parent = c
		for i := c.size; i > insertPoint; i-- {
			c.keys[i] = c.keys[i-1]
			c.pointers[i+1] = c.pointers[i]
		}
		c.keys[insertPoint] = key
		c.pointers[insertPoint+1] = cur
		if insertPoint == c.size {
			c.maxi = cur.maxi
		}
		c.size++
	} else {
		for i := c.size; i > insertPoint; i-- {
			c.keys[i] = c.keys[i-1]
			c.data[i] = c.data[i-1]
		}
		c.keys[insertPoint] = key
		c.data[insertPoint] = value.(*RowRecord)
		if insertPoint == c.size {
			c.maxi = key
		}
		c.size++
	}
}

func (t *BTree) insertChild(cur *Node, child *Node, key Key, split **Node) error {
	insertPoint := uint32(0)
	for ; insertPoint < cur.size && cur.keys[insertPoint] < key; insertPoint++ {
	}
	child.parent = cur
	if cur.size < t.order-1 {
		cur.merge(insertPoint, key, child)
		configs.Assert(cur.isLeaf == false, "invalid: inserted into leaf node")
		*split = nil
		cur.lock.Unlock()
		return nil
	}
	tempNode := t.NewNode(false)
	tempNode.cutRightFrom(cur)
	tempNode.lock.Lock()
	if insertPoint <= cur.size {
		cur.merge(insertPoint, key, child)
	} else {
		insertPoint -= cur.size + 1
		tempNode.merge(insertPoint, key, child)
	}

	var err error
	if cur.parent != nil {
		err = t.insertChild(cur.parent, tempNode, cur.maxi, split)
	} else {
		err = t.createNewRoot(cur, tempNode)
	}
	tempNode.lock.Unlock()
	cur.lock.Unlock()
	return err
}

func (t *BTree) insertIntoLeaf(it *Iterator, key Key, value *RowRecord, split *Node) error {
	if it.exist(key) {
		panic("duplicate primary key insert")
	}
	leaf := it.node
	insertPoint := uint32(0)
	for ; insertPoint < leaf.size && leaf.keys[insertPoint] < key; insertPoint++ {
	}
	if leaf.size < t.order-1 {
		leaf.merge(insertPoint, key, value)
		leaf.lock.Unlock()
	} else {
		newLeaf := t.NewNode(true)
		newLeaf.lock.Lock()
		configs.Assert(leaf.size == t.order-1, "trying to split a not full leaf")
		newLeaf.cutRightFrom(leaf)
		if insertPoint <= leaf.size {
			leaf.merge(insertPoint, key, value)
		} else {
			insertPoint -= leaf.size
			newLeaf.merge(insertPoint, key, value)
		}
		leaf.next = newLeaf
		var err error
		if leaf.parent == nil {
			err = t.createNewRoot(leaf, newLeaf)
		} else {
			err = t.insertChild(leaf.parent, newLeaf, leaf.maxi, &split)
		}
		leaf.lock.Unlock()
		newLeaf.lock.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

type Iterator struct {
	node   *Node
	offset uint32
	key    Key
}

func (it *Iterator) Next() error {
	if it.offset+1 >= it.node.size {
		it.node.lock.RUnlock()
		it.node.lock.RLock()
		it.node = it.node.next
		it.offset = 0
	}
	if it.node == nil {
		return ErrPointerHashReachedLimit
	}
	if !it.node.isLeaf {
		return ErrShouldBeLeaf
	}
	return nil
}

func (it *Iterator) Value() *RowRecord {
	return it.node.data[it.offset]
}

func (it *Iterator) Free() {
	it.node.lock.RUnlock()
}

func (it *Iterator) exist(key Key) bool {
	for i := uint32(0); i < it.node.size; i++ {
		if it.node.keys[i] == key {
			return true
		}
	}
	return false
}

func (t *BTree) PrintSubTree(cur *Node, prev string) {
	if cur.isLeaf {
		fmt.Printf(prev+"[%v #%v]\n", cur.keys[:cur.size], cur.size)
		return
	}
	for i := uint32(0); i <= cur.size; i++ {
		t.PrintSubTree(cur.pointers[i], prev+"--")
		if i < cur.size {
			fmt.Printf(prev+"->"+"%v\n", cur.keys[i])
		}
	}
}
