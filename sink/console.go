// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sink

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/poiesic/recembed/core"
	"github.com/poiesic/recembed/ingestion"
)

const consoleLabel = "Generated Embeddings:"

var labelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))

// Console prints each vector on its own line, prefixed with a label.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

var _ ingestion.Sink = (*Console)(nil)

// NewConsole creates a console sink writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Emit prints the embedding's vector.
func (c *Console) Emit(ctx context.Context, embedding *core.Embedding) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := fmt.Fprintf(c.w, "%s %v\n", labelStyle.Render(consoleLabel), embedding.Vector)
	return err
}
