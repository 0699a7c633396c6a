// FILE: lixenwraith/logpipe/formatter/formatter_test.go
package formatter

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type callSite struct {
	File string
	Line int
}

type namedOrigin struct{ name string }

func (n *namedOrigin) String() string { return n.name }

func fixedTime() time.Time {
	return time.Date(2024, time.March, 5, 14, 7, 9, 0, time.Local)
}

func TestFormatterFormat(t *testing.T) {
	ts := fixedTime()

	t.Run("without origin", func(t *testing.T) {
		f := New()
		line := f.Format(ts, "Info", nil, "hello")
		assert.Equal(t, "05/03/2024 14:07:09 [Info] hello\n", line)
	})

	t.Run("with origin stripped", func(t *testing.T) {
		f := New()
		line := f.Format(ts, "Error", "main.run (at /src/app/cmd/Foo.go:42)", "boom")
		assert.Equal(t, "05/03/2024 14:07:09 [Error] (Foo.go:42): boom\n", line)
	})

	t.Run("with origin unstripped", func(t *testing.T) {
		f := New().StripStacktrace(false)
		line := f.Format(ts, "Warning", "caller-context", "careful")
		assert.Equal(t, "05/03/2024 14:07:09 [Warning] (caller-context): careful\n", line)
	})

	t.Run("stacktrace disabled hides origin", func(t *testing.T) {
		f := New().Stacktrace(false)
		line := f.Format(ts, "Info", "/src/Foo.go:42", "msg")
		assert.Equal(t, "05/03/2024 14:07:09 [Info] msg\n", line)
	})

	t.Run("empty string origin is absent", func(t *testing.T) {
		f := New()
		line := f.Format(ts, "Info", "", "msg")
		assert.Equal(t, "05/03/2024 14:07:09 [Info] msg\n", line)
	})

	t.Run("custom time layout", func(t *testing.T) {
		f := New().TimeFormat("2006-01-02T15:04:05")
		line := f.Format(ts, "Assert", nil, "x")
		assert.Equal(t, "2024-03-05T14:07:09 [Assert] x\n", line)
	})

	t.Run("empty layout keeps default", func(t *testing.T) {
		f := New().TimeFormat("")
		line := f.Format(ts, "Info", nil, "x")
		assert.True(t, strings.HasPrefix(line, "05/03/2024 14:07:09"))
	})
}

func TestFormatterStripsNewlines(t *testing.T) {
	f := New().StripStacktrace(false)
	line := f.Format(fixedTime(), "Exception", "frame1\nframe2\n", "line one\nline two\r\nline three")

	assert.Equal(t, 1, strings.Count(line, "\n"), "only the terminating newline may remain")
	assert.True(t, strings.HasSuffix(line, "\n"))
	assert.NotContains(t, line, "\r")
	assert.Contains(t, line, "(frame1frame2): line oneline twoline three")
}

func TestFormatterEscapeNonPrintable(t *testing.T) {
	t.Run("verbatim by default", func(t *testing.T) {
		line := New().Format(fixedTime(), "Info", nil, "bell\x07tab\tend")
		assert.Equal(t, "05/03/2024 14:07:09 [Info] bell\x07tab\tend\n", line)
	})

	t.Run("escaped when enabled", func(t *testing.T) {
		f := New().EscapeNonPrintable(true)
		line := f.Format(fixedTime(), "Info", nil, "bell\x07tab\tend\nnext 世界")
		assert.Equal(t, "05/03/2024 14:07:09 [Info] bell<07>tab<09>endnext 世界\n", line)
	})
}

func TestStripOrigin(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"path with paren suffix", "pkg.Func (at /home/dev/proj/Foo.go:42)", "Foo.go:42"},
		{"path then space", ".../Foo.go:42 (...)", "Foo.go:42"},
		{"go panic frame", "main.main()\n\t/tmp/app/main.go:17 +0x1d\n", "main.go:17"},
		{"windows separator", `C:\src\app\Bar.go:7)`, "Bar.go:7"},
		{"case insensitive marker", "/src/UPPER.GO:9)", "UPPER.GO:9"},
		{"no separator", "Foo.go:3", "Foo.go:3"},
		{"bare name after paren", "(at Foo.go:42)", "Foo.go:42"},
		{"bare name after space", "at Foo.go:42", "Foo.go:42"},
		{"secondary extension", "runtime.goexit (at /usr/lib/go/src/runtime/asm_amd64.s:1700)", "asm_amd64.s:1700"},
		{"primary wins over secondary", "/a/x.s:1 /b/y.go:2", "y.go:2"},
		{"no marker unchanged", "some opaque context", "some opaque context"},
		{"marker without digits unchanged", "/src/Foo.go:abc", "/src/Foo.go:abc"},
		{"marker at end unchanged", "/src/Foo.go:", "/src/Foo.go:"},
		{"short string unchanged", ".go:", ".go:"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripOrigin(tt.origin))
		})
	}
}

func TestOrigin(t *testing.T) {
	t.Run("nil is absent", func(t *testing.T) {
		_, ok := Origin(nil)
		assert.False(t, ok)
	})

	t.Run("error uses message", func(t *testing.T) {
		s, ok := Origin(errors.New("at /x/y.go:1"))
		assert.True(t, ok)
		assert.Equal(t, "at /x/y.go:1", s)
	})

	t.Run("stringer", func(t *testing.T) {
		s, ok := Origin(&namedOrigin{name: "worker-3"})
		assert.True(t, ok)
		assert.Equal(t, "worker-3", s)
	})

	t.Run("nil stringer pointer does not panic", func(t *testing.T) {
		var n *namedOrigin
		_, ok := Origin(n)
		assert.True(t, ok)
	})

	t.Run("struct dumped with fields", func(t *testing.T) {
		s, ok := Origin(callSite{File: "svc.go", Line: 12})
		assert.True(t, ok)
		assert.Contains(t, s, "svc.go")
		assert.Contains(t, s, "12")
	})
}

func TestFormatterConcurrent(t *testing.T) {
	f := New()
	ts := fixedTime()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				line := f.Format(ts, "Info", "/a/b.go:1)", "multi\nline")
				assert.Equal(t, "05/03/2024 14:07:09 [Info] (b.go:1): multiline\n", line)
			}
		}()
	}
	wg.Wait()
}

func TestValidateLayout(t *testing.T) {
	assert.NoError(t, ValidateLayout(DefaultTimeFormat))
	assert.NoError(t, ValidateLayout(time.RFC3339))
	assert.ErrorIs(t, ValidateLayout("no fields here"), ErrInvalidLayout)
}
