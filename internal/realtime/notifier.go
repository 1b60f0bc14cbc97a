package realtime

import (
	"context"
	"log"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultFanoutChannel is the Redis pub/sub channel carrying "seats of
// show N changed" signals between gateway instances.
const DefaultFanoutChannel = "seats.changed"

// Notifier turns "seat state changed" signals into snapshot broadcasts.
// With Redis configured, the signal is published so every gateway
// instance (this one included) re-broadcasts to its local room; without
// Redis it degrades to a direct local broadcast.  The broadcast after a
// committed booking is the authoritative update path — client-side
// bookSeat echoes only shave latency.
type Notifier struct {
	Hub     *Hub
	RDB     *redis.Client // nil disables cross-instance fan-out
	Channel string
}

// NewNotifier wires a notifier for the given hub.  rdb may be nil.
func NewNotifier(hub *Hub, rdb *redis.Client) *Notifier {
	return &Notifier{Hub: hub, RDB: rdb, Channel: DefaultFanoutChannel}
}

// SeatsChanged signals that a show's seat state mutated.  Errors degrade
// to a local broadcast so viewers on this instance still get the update.
func (n *Notifier) SeatsChanged(ctx context.Context, showID uint64) {
	if n.RDB != nil {
		err := n.RDB.Publish(ctx, n.Channel, strconv.FormatUint(showID, 10)).Err()
		if err == nil {
			return
		}
		log.Printf("realtime: redis publish failed, broadcasting locally: %v", err)
	}
	n.Hub.Broadcast(ctx, showID)
}

// RunFanout subscribes to the Redis channel and re-broadcasts snapshots
// to local rooms until the context is cancelled.  No-op without Redis.
func (n *Notifier) RunFanout(ctx context.Context) {
	if n.RDB == nil {
		return
	}
	sub := n.RDB.Subscribe(ctx, n.Channel)
	defer sub.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			showID, err := strconv.ParseUint(msg.Payload, 10, 64)
			if err != nil {
				log.Printf("realtime: bad fan-out payload %q", msg.Payload)
				continue
			}
			n.Hub.Broadcast(ctx, showID)
		}
	}
}
