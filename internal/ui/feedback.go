package ui

// feedbackLog keeps the most recent messages in a fixed ring.
type feedbackLog struct {
	buf  []string
	next int
	n    int
}

func newFeedbackLog(capacity int) *feedbackLog {
	return &feedbackLog{buf: make([]string, capacity)}
}

func (f *feedbackLog) add(msg string) {
	f.buf[f.next] = msg
	f.next = (f.next + 1) % len(f.buf)
	if f.n < len(f.buf) {
		f.n++
	}
}

func (f *feedbackLog) newestFirst() []string {
	out := make([]string, 0, f.n)
	for i := 1; i <= f.n; i++ {
		out = append(out, f.buf[(f.next-i+len(f.buf))%len(f.buf)])
	}
	return out
}

// logFeedback shows msg at the top of the feedback panel, dropping the
// oldest entry once the panel is full.
func (c *Controller) logFeedback(msg string) {
	c.feedback.add(msg)
	c.log.Printf("feedback: %s", msg)

	panel := c.doc.ByID(idFeedbackLog)
	entry := c.doc.Create("div", "class", classFeedback)
	entry.AppendText(msg)
	panel.Prepend(entry)
	for len(panel.Children()) > len(c.feedback.buf) {
		panel.RemoveLast()
	}
	c.dirty = true
}
