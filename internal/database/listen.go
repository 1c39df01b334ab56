package database

import (
	"context"
	"fmt"

	"github.com/digital-menu/api/internal/menu"
)

// MenuChannel is notified by a trigger on every menu_items change.
const MenuChannel = "menu_items_changed"

// Subscribe delivers the available menu items once and again after every
// change notification. It holds one pool connection until ctx is done.
func (s *Store) Subscribe(ctx context.Context, onSnapshot func([]menu.Item)) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+MenuChannel); err != nil {
		return fmt.Errorf("listen %s: %w", MenuChannel, err)
	}

	for {
		items, err := s.ListMenuItems(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		onSnapshot(items)

		if _, err := conn.Conn().WaitForNotification(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("wait for menu notification: %w", err)
		}
	}
}
