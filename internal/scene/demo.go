package scene

import "github.com/danmuck/krgsave/internal/persist"

// Player is a tagged demo node. Inventory is tagged but not a payload kind.
type Player struct {
	Base
	Health    int32    `save:"health"`
	Stamina   float32  `save:"stamina"`
	Alive     bool     `save:"alive"`
	Inventory []string `save:"inventory"`
}

// World carries level-wide state.
type World struct {
	Base
	TimeOfDay float64 `save:"time_of_day"`
	Seed      int32   `save:"seed"`
	MapName   string
}

// Chest exposes its lock through accessors rather than a tagged field.
type Chest struct {
	Base
	Coins  int32 `save:"coins"`
	locked bool
}

func (c *Chest) Locked() bool { return c.locked }
func (c *Chest) Lock()        { c.locked = true }
func (c *Chest) Unlock()      { c.locked = false }

// RegisterDemo tags the demo node types on reg.
func RegisterDemo(reg *persist.Registry) error {
	if err := reg.Register(&Player{}); err != nil {
		return err
	}
	if err := reg.Register(&World{}); err != nil {
		return err
	}
	return reg.Register(&Chest{}, persist.Property("locked",
		func(c *Chest) any { return c.locked },
		func(c *Chest, v any) error {
			b, ok := v.(bool)
			if !ok {
				return persist.ErrValueType
			}
			c.locked = b
			return nil
		},
	))
}

// NewDemo builds a small world: a player and two chests under a level group.
func NewDemo() (*World, *Player) {
	world := &World{TimeOfDay: 13.25, Seed: 1337, MapName: "crypt"}
	world.SetName("world")

	player := &Player{Health: 100, Stamina: 3.5, Alive: true, Inventory: []string{"torch"}}
	player.SetName("player")

	gold := &Chest{Coins: 250}
	gold.SetName("chest.gold")
	gold.Lock()
	empty := &Chest{}
	empty.SetName("chest.empty")

	world.Add(player, NewGroup("level", gold, empty))
	return world, player
}
