package grid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddNode_AssignsStableIncreasingIDs(t *testing.T) {
	reg := NewNodeRegistry()
	id0 := reg.AddNode("10.0.0.1", 9000, 4, nil, 1)
	id1 := reg.AddNode("10.0.0.2", 9000, 4, nil, 1)
	assert.Equal(t, 0, id0)
	assert.Equal(t, 1, id1)
}

func TestAddNode_ReregistrationReusesID(t *testing.T) {
	reg := NewNodeRegistry()
	id0 := reg.AddNode("10.0.0.1", 9000, 4, nil, 1)
	id1 := reg.AddNode("10.0.0.1", 9000, 8, nil, 2)
	assert.Equal(t, id0, id1)
	n, err := reg.GetNode(id0)
	require.NoError(t, err)
	assert.Equal(t, 8, n.Cores)
}

func TestAddNode_FirstNodeGoesToDefaultQueue(t *testing.T) {
	reg := NewNodeRegistry()
	id := reg.AddNode("10.0.0.1", 9000, 4, nil, 1)
	n, err := reg.GetNode(id)
	require.NoError(t, err)
	assert.Equal(t, JobTypeDefault, n.Type)
}

func TestGetNode_UnknownIDIsNotFound(t *testing.T) {
	reg := NewNodeRegistry()
	_, err := reg.GetNode(42)
	assert.Error(t, err)
}

func TestGetNodeByIdent_ResolvesHostPort(t *testing.T) {
	reg := NewNodeRegistry()
	id := reg.AddNode("10.0.0.1", 9000, 4, nil, 1)
	n, err := reg.GetNodeByIdent("10.0.0.1:9000")
	require.NoError(t, err)
	assert.Equal(t, id, n.NodeID)
}

func TestUpdateNode_MergesPartialFieldsAndRefreshesHeartbeat(t *testing.T) {
	reg := NewNodeRegistry()
	id := reg.AddNode("10.0.0.1", 9000, 4, nil, 1)
	before, _ := reg.GetNode(id)
	beforeHeartbeat := before.HeartbeatTS

	newCores := 8
	n, err := reg.UpdateNode(id, NodeUpdate{Cores: &newCores})
	require.NoError(t, err)
	assert.Equal(t, 8, n.Cores)
	assert.GreaterOrEqual(t, n.HeartbeatTS, beforeHeartbeat)
}

func TestUpdateNode_UnknownIDIsNotFound(t *testing.T) {
	reg := NewNodeRegistry()
	_, err := reg.UpdateNode(42, NodeUpdate{})
	assert.Error(t, err)
}

func TestFreeNodes_ExcludesFullyOccupiedNodes(t *testing.T) {
	reg := NewNodeRegistry()
	id := reg.AddNode("10.0.0.1", 9000, 1, nil, 1)
	n, _ := reg.GetNode(id)
	n.WorkUnits = append(n.WorkUnits, WorkUnitRef{JobID: 0, WorkUnitID: 0})

	free, err := reg.FreeNodes(nil)
	require.NoError(t, err)
	assert.Empty(t, free)
}

func TestFreeNodes_FallsBackToDefaultWhenPreferredQueueEmpty(t *testing.T) {
	reg := NewNodeRegistry()
	reg.AddNode("10.0.0.1", 9000, 4, nil, 1) // lands in DEFAULT (first node)

	fast := JobTypeFast
	free, err := reg.FreeNodes(&fast)
	require.NoError(t, err)
	require.Len(t, free, 1)
}

func TestFreeNodes_RejectsUnknownType(t *testing.T) {
	reg := NewNodeRegistry()
	bogus := JobType("NOPE")
	_, err := reg.FreeNodes(&bogus)
	assert.Error(t, err)
}

func TestSweep_MarksStaleNodeDeadAndReturnsOrphans(t *testing.T) {
	reg := NewNodeRegistryWithConfig(RegistryConfig{NodeTimeoutSeconds: 1})
	id := reg.AddNode("10.0.0.1", 9000, 4, nil, 1)
	n, _ := reg.GetNode(id)
	n.HeartbeatTS = now() - 100
	n.WorkUnits = []WorkUnitRef{{JobID: 1, WorkUnitID: 0}}

	orphans := reg.Sweep()
	require.Len(t, orphans, 1)
	assert.Equal(t, NodeDead, n.Status)
	assert.Empty(t, n.WorkUnits)
}

func TestSweep_LeavesFreshNodesOnline(t *testing.T) {
	reg := NewNodeRegistryWithConfig(RegistryConfig{NodeTimeoutSeconds: 60})
	id := reg.AddNode("10.0.0.1", 9000, 4, nil, 1)

	orphans := reg.Sweep()
	assert.Empty(t, orphans)
	n, _ := reg.GetNode(id)
	assert.Equal(t, NodeOnline, n.Status)
}

func TestAssignType_BalancesTowardTargetProportions(t *testing.T) {
	reg := NewNodeRegistry()
	// Five nodes should roughly split 50/30/20 across DEFAULT/BATCH/FAST.
	counts := map[JobType]int{}
	for i := 0; i < 5; i++ {
		id := reg.AddNode("10.0.0."+string(rune('1'+i)), 9000, 1, nil, 1)
		n, _ := reg.GetNode(id)
		counts[n.Type]++
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	assert.Equal(t, 5, total)
	targets := map[JobType]float64{JobTypeDefault: 0.5, JobTypeBatch: 0.3, JobTypeFast: 0.2}
	for jt, target := range targets {
		assert.InDelta(t, target, float64(counts[jt])/5, 1.0/5, "queue %s", jt)
	}
}
