package htmltext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripParagraphsAndBreaks(t *testing.T) {
	in := "<p>First paragraph.</p><p>Second<br>line.</p>"
	got := Strip(in)
	assert.Equal(t, "First paragraph.\n\nSecond\nline.", got)
}

func TestStripLists(t *testing.T) {
	in := "<p>Requirements:</p><ul><li>Go</li><li>SQL</li></ul>"
	got := Strip(in)
	assert.Equal(t, "Requirements:\n\n- Go\n- SQL", got)
}

func TestStripDecodesEntities(t *testing.T) {
	in := "<p>Salary &amp; benefits &gt; market&nbsp;rate</p>"
	got := Strip(in)
	assert.Equal(t, "Salary & benefits > market rate", got)
}

func TestStripCollapsesBlankLines(t *testing.T) {
	in := "<div><p>a</p></div><div></div><div></div><div><p>b</p></div>"
	got := Strip(in)
	assert.Equal(t, "a\n\nb", got)
	assert.NotContains(t, got, "\n\n\n")
}

func TestStripDropsScriptsAndStyles(t *testing.T) {
	in := "<p>visible</p><script>alert(1)</script><style>.x{}</style>"
	assert.Equal(t, "visible", Strip(in))
}

func TestStripPlainTextPassesThrough(t *testing.T) {
	assert.Equal(t, "just text", Strip("just text"))
	assert.Equal(t, "", Strip("   "))
	assert.Equal(t, "", Strip(""))
}

func TestStripInlineMarkupKeepsSpacing(t *testing.T) {
	in := "<p>Senior <strong>Go</strong> Engineer</p>"
	assert.Equal(t, "Senior Go Engineer", Strip(in))
}
