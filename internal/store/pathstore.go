package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dgallion1/casegen/internal/pathstore"
)

const pathstorePrefix = "casegen/conversations/"

// Pathstore keeps transcripts in a remote pathstore under
// casegen/conversations/<key>.
type Pathstore struct {
	client *pathstore.Client
}

func NewPathstore(client *pathstore.Client) *Pathstore {
	return &Pathstore{client: client}
}

func (p *Pathstore) Get(ctx context.Context, key string) ([]Message, bool, error) {
	node, err := p.client.GetNode(ctx, pathstorePrefix+key)
	if err != nil {
		return nil, false, err
	}
	if node == nil {
		return nil, false, nil
	}
	var msgs []Message
	if len(node.Value) > 0 && string(node.Value) != "null" {
		if err := json.Unmarshal(node.Value, &msgs); err != nil {
			return nil, false, fmt.Errorf("decode %s: %w", key, err)
		}
	}
	if msgs == nil {
		msgs = []Message{}
	}
	return msgs, true, nil
}

func (p *Pathstore) Set(ctx context.Context, key string, msgs []Message) error {
	if msgs == nil {
		msgs = []Message{}
	}
	return p.client.PutNode(ctx, pathstorePrefix+key, pathstore.NodeRequest{
		Value:     msgs,
		MergeMode: "replace",
		Source:    "casegen",
	})
}

func (p *Pathstore) Delete(ctx context.Context, key string) error {
	return p.client.DeleteNode(ctx, pathstorePrefix+key)
}

func (p *Pathstore) Close() error {
	p.client.Close()
	return nil
}
