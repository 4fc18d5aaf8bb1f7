// # internal/engine/parser/pool_test.go
package parser

import (
	"sync"
	"testing"
)

func TestParserPool_GetPut(t *testing.T) {
	lang, err := NewGrammarLoader().Language(LangTSX)
	if err != nil {
		t.Fatal(err)
	}
	pool := NewParserPool(lang)

	sp := pool.Get()
	if sp == nil {
		t.Fatal("expected non-nil parser from pool")
	}
	if pool.Leased() != 1 {
		t.Fatalf("expected 1 leased parser, got %d", pool.Leased())
	}
	pool.Put(sp)
	if pool.Leased() != 0 {
		t.Fatalf("expected 0 leased parsers, got %d", pool.Leased())
	}

	// Put(nil) is a no-op.
	pool.Put(nil)
}

func TestParserPool_ConcurrentParses(t *testing.T) {
	lang, err := NewGrammarLoader().Language(LangTSX)
	if err != nil {
		t.Fatal(err)
	}
	pool := NewParserPool(lang)
	src := []byte(`const el = <Card title="x" />;`)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sp := pool.Get()
			defer pool.Put(sp)
			tree := sp.Parse(src, nil)
			if tree == nil {
				t.Error("expected tree")
				return
			}
			defer tree.Close()
			if tree.RootNode().HasError() {
				t.Error("unexpected parse error")
			}
		}()
	}
	wg.Wait()

	if pool.Leased() != 0 {
		t.Fatalf("expected all parsers returned, got %d leased", pool.Leased())
	}
}

func TestGrammarLoader_Languages(t *testing.T) {
	loader := NewGrammarLoader()
	got := loader.Languages()
	want := []string{LangJavaScript, LangTSX, LangTypeScript}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
	if _, err := loader.Language("python"); err == nil {
		t.Fatal("expected error for unknown grammar")
	}
}
