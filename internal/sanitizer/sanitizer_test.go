package sanitizer

import (
	"strings"
	"testing"

	nethtml "golang.org/x/net/html"
)

const articleURL = "https://site/p/1"

func TestSanitize_Cases(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "relative image",
			input:    `<img src="/x.png">`,
			expected: `<img src="https://site/x.png">`,
		},
		{
			name:     "relative link with query",
			input:    `<a href="../q?a=1&amp;b=2" title="T" rel="nofollow">more</a>`,
			expected: `<a href="https://site/q?a=1&amp;b=2" title="T">more</a>`,
		},
		{
			name:     "malformed url left untouched",
			input:    `<a href="http://[::1">x</a>`,
			expected: `<a href="http://[::1">x</a>`,
		},
		{
			name:     "script and handlers",
			input:    `<p onclick="evil()">Hi<script>alert(1)</script><b style="x">bold</b></p>`,
			expected: `<p>Hi<b>bold</b></p>`,
		},
		{
			name:     "javascript url dropped",
			input:    `<a href="javascript:alert(1)" target="_blank">x</a>`,
			expected: `<a>x</a>`,
		},
		{
			name:     "disallowed wrappers unwrapped",
			input:    `<div class="c"><section><h1>Big</h1><h2>Sub</h2><span>text</span></section></div>`,
			expected: `Big<h2>Sub</h2>text`,
		},
		{
			name:     "text is re-escaped",
			input:    `<p>a &lt; b &amp;&amp; c &gt; d</p>`,
			expected: `<p>a &lt; b &amp;&amp; c &gt; d</p>`,
		},
		{
			name:     "comments and iframes dropped",
			input:    `<!-- ad --><iframe src="https://ads">x</iframe><hr/><br>`,
			expected: `<hr><br>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Sanitize(tt.input, articleURL)
			if got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestSanitize_OutputStaysInsideAllowList(t *testing.T) {
	inputs := []string{
		`<script>document.cookie</script><p>ok</p>`,
		`<img src=x onerror=alert(1)><svg onload=alert(1)><circle/></svg>`,
		`<a href="/x" onmouseover="steal()" style="color:red">hover</a>`,
		`<p><b><i>unclosed <u>tags`,
		`<<p>>double<</p>> <div <p>broken attr="x>`,
		`<object data="x.swf"><embed src="x.swf"></object><form action="/post"><input name=q></form>`,
		`<IMG SRC="/UPPER.png" WIDTH=10 Height=20 LOADING=lazy CLASS=c>`,
		`<table><tr><td>cell</td></tr></table><pre><code>x := 1</code></pre>`,
		`<style>p{}</style><noscript><img src=y></noscript><textarea><b>x</b></textarea>`,
	}

	for _, input := range inputs {
		out := Sanitize(input, articleURL)
		z := nethtml.NewTokenizer(strings.NewReader(out))

		for {
			tt := z.Next()
			if tt == nethtml.ErrorToken {
				break
			}

			if tt != nethtml.StartTagToken && tt != nethtml.SelfClosingTagToken && tt != nethtml.EndTagToken {
				continue
			}

			tok := z.Token()
			if !allowedTags[tok.Data] {
				t.Errorf("Input %q produced disallowed tag <%s> in %q", input, tok.Data, out)
			}

			for _, attr := range tok.Attr {
				if !allowedAttrs[tok.Data][attr.Key] {
					t.Errorf("Input %q produced disallowed attribute %s on <%s> in %q", input, attr.Key, tok.Data, out)
				}
			}
		}
	}
}

func TestSanitize_UppercaseImage(t *testing.T) {
	got := Sanitize(`<IMG SRC="/UPPER.png" WIDTH=10 Height=20 LOADING=lazy CLASS=c>`, articleURL)
	expected := `<img src="https://site/UPPER.png" width="10" height="20" loading="lazy">`

	if got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestSanitize_Deterministic(t *testing.T) {
	input := `<p>x<a href="/a">a</a><img src="b.png" alt="b"></p>`

	first := Sanitize(input, articleURL)
	for i := 0; i < 10; i++ {
		if again := Sanitize(input, articleURL); again != first {
			t.Fatalf("Expected identical output, got %q then %q", first, again)
		}
	}

	if !strings.Contains(first, `src="https://site/p/b.png"`) {
		t.Errorf("Expected image resolved relative to the article directory, got %q", first)
	}
}

func TestSanitize_InvalidBase(t *testing.T) {
	got := Sanitize(`<a href="/rel">x</a>`, "::not a url")
	if got != `<a href="/rel">x</a>` {
		t.Errorf("Expected relative href kept without a base, got %q", got)
	}
}
