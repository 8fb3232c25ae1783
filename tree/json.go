package tree

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/arsenal/buddy"
)

// BlockJsonData populates a json object with summary information about this tree
func (t *Tree) BlockJsonData(json jwriter.ObjectState) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.blockJsonData(json)
}

func (t *Tree) blockJsonData(json jwriter.ObjectState) {
	var stats buddy.DetailedStatistics
	stats.Clear()
	t.addDetailedStatistics(&stats)

	json.Name("TotalBytes").Int(len(t.data))
	json.Name("BaseUnit").Int(t.baseUnit)
	json.Name("MaxHeight").Int(t.maxHeight)
	json.Name("UnusedBytes").Int(stats.ArenaBytes - stats.AllocatedBlockBytes)
	json.Name("WastedBytes").Int(stats.WastedBytes())
	json.Name("Allocations").Int(stats.AllocationCount)
	json.Name("UnusedRanges").Int(stats.FreeBlockCount)
}

// WriteJSON renders the summary produced by BlockJsonData along with the full block tree
func (t *Tree) WriteJSON() ([]byte, error) {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	w := jwriter.NewWriter()
	obj := w.Object()

	summary := obj.Name("Summary").Object()
	t.blockJsonData(summary)
	summary.End()

	if t.root != nil {
		t.writeNodeJSON(obj.Name("Root"), t.root)
	} else {
		obj.Name("Root").Null()
	}
	obj.End()

	return w.Bytes(), w.Error()
}

func (t *Tree) writeNodeJSON(w *jwriter.Writer, n *node) {
	obj := w.Object()
	obj.Name("Offset").Int(n.offset)
	obj.Name("Height").Int(n.height)
	obj.Name("Capacity").Int(n.capacity(t.baseUnit))

	if n.isLeaf() {
		obj.Name("Used").Int(n.used)
	} else {
		t.writeNodeJSON(obj.Name("Left"), n.left)
		t.writeNodeJSON(obj.Name("Right"), n.right)
	}

	obj.End()
}
