package scene

import (
	"reflect"
	"testing"

	"github.com/danmuck/krgsave/internal/persist"
	"github.com/danmuck/krgsave/internal/testutil/testlog"
)

func TestWalkPreOrder(t *testing.T) {
	world, _ := NewDemo()
	var got []string
	Walk(world, func(n persist.Node, depth int) {
		got = append(got, n.Name())
	})
	want := []string{"world", "player", "level", "chest.gold", "chest.empty"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("walk=%v want %v", got, want)
	}
}

func TestDemoDiscoveryLayout(t *testing.T) {
	testlog.Start(t)
	reg := persist.NewRegistry()
	if err := RegisterDemo(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	world, _ := NewDemo()
	d := reg.Discover(world)

	if len(d.Targets) != 4 {
		t.Fatalf("expected 4 targets, got %d\n%s", len(d.Targets), d.Describe())
	}
	sizes := []int{8 + 4, 4 + 4 + 1, 4 + 1, 4 + 1}
	for i, tg := range d.Targets {
		if tg.ByteSize != sizes[i] {
			t.Fatalf("target %s bytes=%d want %d", tg.Instance.Name(), tg.ByteSize, sizes[i])
		}
	}
	if len(d.Diagnostics) != 1 || d.Diagnostics[0].Member != "inventory" {
		t.Fatalf("expected inventory diagnostic, got %+v", d.Diagnostics)
	}
}

func TestChestLockPropertyRoundTrip(t *testing.T) {
	testlog.Start(t)
	reg := persist.NewRegistry()
	if err := RegisterDemo(reg); err != nil {
		t.Fatalf("register: %v", err)
	}
	c := &Chest{Coins: 3}
	c.SetName("c")
	c.Lock()
	d := reg.Discover(c)
	payload, err := d.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	c.Unlock()
	c.Coins = 0
	if _, err := d.Decode(payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !c.Locked() || c.Coins != 3 {
		t.Fatalf("chest not restored: locked=%v coins=%d", c.Locked(), c.Coins)
	}
}
