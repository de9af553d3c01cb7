package debate

import "conclave/pkg/contextmgr"

// Entry is one immutable turn in the debate transcript.
//
// Failed marks turns whose content is a folded provider diagnostic. The
// reference behavior still feeds such turns to later agents verbatim; the
// flag exists so a stricter policy can exclude them later.
type Entry struct {
	Model   string `json:"model"`
	Content string `json:"content"`
	Round   int    `json:"round"`
	Failed  bool   `json:"failed,omitempty"`
}

// Session is the mutable aggregate for one debate run: the query and the
// strictly ordered transcript. Only the engine appends; entries are never
// mutated after creation.
type Session struct {
	Query      string  `json:"query"`
	Transcript []Entry `json:"transcript"`
}

// Reset clears the session for a new run.
func (s *Session) Reset(query string) {
	s.Query = query
	s.Transcript = s.Transcript[:0]
}

// Append adds a completed turn. Order is semantically significant: later
// entries may reference earlier ones.
func (s *Session) Append(e Entry) {
	s.Transcript = append(s.Transcript, e)
}

// Turns renders the transcript in the composer's format.
func (s *Session) Turns() []contextmgr.Turn {
	turns := make([]contextmgr.Turn, 0, len(s.Transcript))
	for i := range s.Transcript {
		e := &s.Transcript[i]
		turns = append(turns, contextmgr.Turn{
			Model:   e.Model,
			Round:   e.Round,
			Content: e.Content,
		})
	}
	return turns
}
