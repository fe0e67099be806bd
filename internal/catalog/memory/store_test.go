package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/harshag68/AgentDevelopment/internal/catalog"
	"github.com/harshag68/AgentDevelopment/internal/catalog/catalogtest"
	"github.com/harshag68/AgentDevelopment/internal/catalog/memory"
	"github.com/harshag68/AgentDevelopment/internal/manual"
)

func TestContract(t *testing.T) {
	catalogtest.Run(t, func(t *testing.T) catalog.Catalog { return memory.New() })
}

func TestClosed(t *testing.T) {
	c := memory.New()
	_ = c.Close()
	if _, err := c.InsertManual(context.Background(), manual.Manual{ManualID: "MAN-1"}); !errors.Is(err, catalog.ErrClosed) {
		t.Errorf("InsertManual after Close = %v, want ErrClosed", err)
	}
	if _, err := c.Search(context.Background(), "", 10); !errors.Is(err, catalog.ErrClosed) {
		t.Errorf("Search after Close = %v, want ErrClosed", err)
	}
}
