package quiz_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/randomer/internal/testutil/htmlpage"
)

func multichoiceHTML(id, title string, labels ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, `<div id="%s" class="que multichoice deferredfeedback notyetanswered">`, id)
	fmt.Fprintf(&b, `<div class="formulation"><div class="qtext">%s</div><div class="answer">`, title)
	for i, l := range labels {
		fmt.Fprintf(&b, `<div class="r%d"><input type="radio" id="%s_%d" name="%s" value="%d">`, i%2, id, i, id, i)
		fmt.Fprintf(&b, `<div data-region="answer-label"><span class="answernumber">%c. </span>%s</div></div>`, 'a'+i, l)
	}
	b.WriteString(`</div></div></div>`)
	return b.String()
}

func gapselectHTML(id string) string {
	return fmt.Sprintf(`<div id="%s" class="que gapselect deferredfeedback">
<div class="qtext">The sky is <span class="control group1"><select id="%s_s" name="%s_p1">
<option value="">&nbsp;</option><option value="1">blue</option><option value="2">green</option>
</select></span> today.</div></div>`, id, id, id)
}

func shortanswerHTML(id string) string {
	return fmt.Sprintf(`<div id="%s" class="que shortanswer deferredfeedback">
<div class="qtext">Name the   capital
of France</div>
<input type="text" class="form-control d-inline" id="%s_in" name="%s_answer">
</div>`, id, id, id)
}

func matchHTML(id string) string {
	return fmt.Sprintf(`<div id="%s" class="que match deferredfeedback"><div class="qtext">Match them</div>
<table><tbody><tr><td class="text">One</td><td class="control hiddenifjs"><select id="%s_s"><option value="1">1</option></select></td></tr></tbody></table>
</div>`, id, id)
}

func quizPageHTML(questions ...string) string {
	return `<html><body><form id="responseform">` + strings.Join(questions, "\n") +
		`<div class="submitbtns"><input type="submit" name="next" id="next" value="Next page"></div></form></body></html>`
}

const resultsPageHTML = `<html><body>
<table class="generaltable quizsummaryofattempt"><tr><td>1</td><td>Answer saved</td></tr></table>
<div class="submitbtns"><button id="return">Return to attempt</button></div>
<div class="submitbtns"><button id="finish">Submit all and finish</button></div>
<div class="confirmation-dialogue"><div class="confirmation-buttons"><input type="button" id="confirm" value="Submit all and finish"><input type="button" id="cancel" value="Cancel"></div></div>
</body></html>`

func newQuizPage(t *testing.T, docs ...string) *htmlpage.Page {
	t.Helper()
	p, err := htmlpage.New(docs...)
	require.NoError(t, err)
	p.AdvanceOn = []string{`[name="next"]`, ".quizstartbuttondiv button", "#loginbtn"}
	return p
}

// clicksOn returns the recorded clicks whose element id has the given prefix.
func clicksOn(p *htmlpage.Page, idPrefix string) []htmlpage.Action {
	var out []htmlpage.Action
	for _, a := range p.Filter(htmlpage.ActionClick) {
		if strings.HasPrefix(a.ID, idPrefix) {
			out = append(out, a)
		}
	}
	return out
}
