package zone

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func link(z Zone, to ...string) Zone {
	for _, name := range to {
		z.Links = append(z.Links, Link{To: name})
	}
	return z
}

// testPool builds two routes between the homes:
//
//	BaseA - Alpha  - Bravo - BaseB
//	   \      |             /
//	    \- Charlie - Delta-/
func testPool() []Zone {
	baseA := link(square("BaseA", TypeHome, 0, 0, 10), "Alpha", "Charlie", "BaseB")
	baseA.Faction = "usa"
	baseB := square("BaseB", TypeHome, 300, 0, 10)
	baseB.Faction = "rus"
	return []Zone{
		baseA,
		link(square("Alpha", TypeFlag, 100, 0, 10), "Bravo", "Charlie"),
		link(square("Bravo", TypeFlag, 200, 0, 10), "BaseB"),
		link(square("Charlie", TypeFlag, 100, 100, 10), "Delta"),
		link(square("Delta", TypeFlag, 200, 100, 10), "BaseB"),
		link(square("Ring", TypeAntiCamp, 150, 50, 10), "Alpha", "BaseB"),
		baseB,
	}
}

func testRequest(t *testing.T, pool []Zone) PathRequest {
	t.Helper()
	a, b, err := FindHomes(pool, "usa", "rus")
	require.NoError(t, err)
	return PathRequest{Pool: pool, HomeA: a, HomeB: b}
}

func optionsNode(t *testing.T, doc string) *yaml.Node {
	t.Helper()
	var n yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(doc), &n))
	// Документ оборачивает содержимое.
	return n.Content[0]
}

func TestFindHomes(t *testing.T) {
	pool := testPool()

	a, b, err := FindHomes(pool, "rus", "usa")
	require.NoError(t, err)
	assert.Equal(t, "BaseB", a.Name)
	assert.Equal(t, "BaseA", b.Name)

	a, b, err = FindHomes(pool, "ger", "")
	require.NoError(t, err)
	assert.Equal(t, "BaseA", a.Name, "falls back to pool order")
	assert.Equal(t, "BaseB", b.Name)

	a, b, err = FindHomes(pool, "", "usa")
	require.NoError(t, err)
	assert.Equal(t, "BaseB", a.Name)
	assert.Equal(t, "BaseA", b.Name)

	_, _, err = FindHomes(pool[:3], "usa", "rus")
	require.ErrorIs(t, err, ErrHomeNotFound)
}

func TestValidatePath(t *testing.T) {
	pool := testPool()
	req := testRequest(t, pool)
	alpha, bravo := pool[1], pool[2]

	require.NoError(t, ValidatePath([]Zone{req.HomeA, alpha, req.HomeB}, req.HomeA, req.HomeB))
	require.ErrorIs(t, ValidatePath([]Zone{req.HomeA, req.HomeB}, req.HomeA, req.HomeB), ErrPathTooShort)
	require.ErrorIs(t, ValidatePath(nil, req.HomeA, req.HomeB), ErrPathTooShort)
	require.ErrorIs(t, ValidatePath([]Zone{alpha, bravo, req.HomeB}, req.HomeA, req.HomeB), ErrPathEndpoints)
	require.ErrorIs(t, ValidatePath([]Zone{req.HomeA, alpha, alpha, req.HomeB}, req.HomeA, req.HomeB), ErrPathEndpoints)
}

func TestPathingRegistry(t *testing.T) {
	r := NewPathingRegistry()
	assert.Equal(t, []string{"fixed", "random", "shortest"}, r.Names())

	_, err := r.New("teleport", nil)
	require.ErrorIs(t, err, ErrUnknownPathing)
	assert.Contains(t, err.Error(), "known: fixed, random, shortest")

	_, err = r.New("fixed", nil)
	require.Error(t, err, "fixed needs zones")

	_, err = r.New("random", optionsNode(t, "{min_flags: 4, max_flags: 2}"))
	require.Error(t, err)

	p, err := r.New(" Shortest ", nil)
	require.NoError(t, err)
	assert.NotNil(t, p)
}

func TestFixedPathing(t *testing.T) {
	pool := testPool()
	req := testRequest(t, pool)

	p, err := NewPathingRegistry().New("fixed", optionsNode(t, "{zones: [Charlie, Alpha]}"))
	require.NoError(t, err)

	path, err := p.CreateZonePath(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"BaseA", "Charlie", "Alpha", "BaseB"}, names(path))
	require.NoError(t, ValidatePath(path, req.HomeA, req.HomeB))

	_, err = NewFixedPathing("Nowhere").CreateZonePath(context.Background(), req)
	require.ErrorIs(t, err, ErrZoneNotFound)
}

func TestShortestPathing(t *testing.T) {
	pool := testPool()
	req := testRequest(t, pool)

	path, err := ShortestPathing{}.CreateZonePath(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"BaseA", "Alpha", "Bravo", "BaseB"}, names(path),
		"direct home link and anticamp ring are ignored")

	// Дорогая связь Alpha-Bravo уводит путь через Charlie.
	pool[1].Links[0].Weight = 1000
	path, err = ShortestPathing{}.CreateZonePath(context.Background(), testRequest(t, pool))
	require.NoError(t, err)
	assert.Equal(t, []string{"BaseA", "Charlie", "Delta", "BaseB"}, names(path))
}

func TestShortestPathing_Reverse(t *testing.T) {
	pool := testPool()
	a, b, err := FindHomes(pool, "rus", "usa")
	require.NoError(t, err)

	path, err := ShortestPathing{}.CreateZonePath(context.Background(), PathRequest{Pool: pool, HomeA: a, HomeB: b})
	require.NoError(t, err)
	assert.Equal(t, []string{"BaseB", "Bravo", "Alpha", "BaseA"}, names(path), "links are undirected")
}

func TestShortestPathing_NoRoute(t *testing.T) {
	pool := testPool()
	for i := range pool {
		if pool[i].Type == TypeFlag {
			pool[i].Links = nil
		}
	}
	pool[0].Links = []Link{{To: "Alpha"}}

	_, err := ShortestPathing{}.CreateZonePath(context.Background(), testRequest(t, pool))
	require.ErrorIs(t, err, ErrNoPath)
}

func TestRandomPathing_FlagCountAndValidity(t *testing.T) {
	pool := testPool()
	req := testRequest(t, pool)

	for _, flags := range []int{2, 3} {
		for seed := uint64(1); seed <= 50; seed++ {
			p, err := NewRandomPathing(RandomOptions{MinFlags: flags, MaxFlags: flags, Seed: seed})
			require.NoError(t, err)

			path, err := p.CreateZonePath(context.Background(), req)
			require.NoError(t, err, "seed %d", seed)
			assert.Len(t, path, flags+2)
			require.NoError(t, ValidatePath(path, req.HomeA, req.HomeB))
			for _, z := range path[1 : len(path)-1] {
				assert.Equal(t, TypeFlag, z.Type)
			}
		}
	}
}

func TestRandomPathing_SeedIsDeterministic(t *testing.T) {
	req := testRequest(t, testPool())

	run := func() []string {
		p, err := NewRandomPathing(RandomOptions{MinFlags: 2, MaxFlags: 3, Seed: 42})
		require.NoError(t, err)
		path, err := p.CreateZonePath(context.Background(), req)
		require.NoError(t, err)
		return names(path)
	}
	assert.Equal(t, run(), run())
}

func TestRandomPathing_Impossible(t *testing.T) {
	req := testRequest(t, testPool())

	p, err := NewRandomPathing(RandomOptions{MinFlags: 4, MaxFlags: 4, Attempts: 20, Seed: 7})
	require.NoError(t, err)
	_, err = p.CreateZonePath(context.Background(), req)
	require.ErrorIs(t, err, ErrNoPath)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p, err = NewRandomPathing(RandomOptions{})
	require.NoError(t, err)
	_, err = p.CreateZonePath(ctx, req)
	require.ErrorIs(t, err, context.Canceled)
}
