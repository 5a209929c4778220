package world

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/udisondev/frontline/internal/model"
)

func TestGroups_JoinAndDestroy(t *testing.T) {
	t.Parallel()
	g := NewGroups(NewIDGenerator())
	ctx := context.Background()

	a, err := g.CreateGroup(ctx, "Blue")
	require.NoError(t, err)
	b, err := g.CreateGroup(ctx, "Red")
	require.NoError(t, err)
	require.NotEqual(t, a, b)

	p := model.NewPlayer(1, "Alice", model.Location{})
	require.NoError(t, g.Join(p, a))
	assert.Equal(t, a, p.GroupID())
	assert.Equal(t, 1, g.MemberCount(a))

	// Switching groups leaves the old one.
	require.NoError(t, g.Join(p, b))
	assert.Equal(t, 0, g.MemberCount(a))
	assert.Equal(t, 1, g.MemberCount(b))

	require.NoError(t, g.DestroyGroup(ctx, b))
	assert.Equal(t, uint64(0), p.GroupID(), "destroy kicks members")
	assert.False(t, g.Exists(b))
	assert.Error(t, g.DestroyGroup(ctx, b))
	assert.Error(t, g.Join(p, b))
}

func TestGroups_Leave(t *testing.T) {
	t.Parallel()
	g := NewGroups(NewIDGenerator())
	id, err := g.CreateGroup(context.Background(), "Blue")
	require.NoError(t, err)

	p := model.NewPlayer(1, "Alice", model.Location{})
	require.NoError(t, g.Join(p, id))
	g.Leave(p)

	assert.Equal(t, uint64(0), p.GroupID())
	assert.Equal(t, 0, g.MemberCount(id))
}

func TestPlayers_OnlineOrdered(t *testing.T) {
	t.Parallel()
	w := NewPlayers()
	for _, id := range []uint64{5, 1, 3} {
		w.Add(model.NewPlayer(id, "p", model.Location{}))
	}
	w.Remove(3)

	online := w.OnlinePlayers()
	require.Len(t, online, 2)
	assert.Equal(t, uint64(1), online[0].ID())
	assert.Equal(t, uint64(5), online[1].ID())
	assert.Nil(t, w.Get(3))
	assert.Equal(t, 2, w.Count())
}

func TestIDGenerator_GroupAndPlayerRanges(t *testing.T) {
	t.Parallel()
	gen := NewIDGenerator()
	assert.Greater(t, gen.NextGroupID(), uint64(0xFFFFFFFF))
	p1, p2 := gen.NextPlayerID(), gen.NextPlayerID()
	assert.Equal(t, p1+1, p2)
}
