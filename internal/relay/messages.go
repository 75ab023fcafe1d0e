package relay

import (
	"fmt"
	"html"
	"strings"

	humanize "github.com/dustin/go-humanize"

	"github.com/studio1767/filerelay/internal/config"
	"github.com/studio1767/filerelay/internal/notify"
)

func successSubject(cfg *config.Config) string {
	return fmt.Sprintf("%s - File Transfer Succeeded", cfg.Program)
}

func failureSubject(cfg *config.Config) string {
	return fmt.Sprintf("%s - File Transfer FAILED", cfg.Program)
}

func successMessage(cfg *config.Config, res *RunResult) notify.Message {
	var b strings.Builder

	fmt.Fprintf(&b, "%d file(s) were successfully transferred:<br>", len(res.Candidates))
	b.WriteString("<ul>")
	for _, c := range res.Candidates {
		fmt.Fprintf(&b, "<li><b>%s</b> (%s) to %s</li>",
			html.EscapeString(c.Entry.Name),
			humanize.Bytes(uint64(c.Entry.Size)),
			html.EscapeString(c.RemotePath))
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "- Pulled from %s<br>", html.EscapeString(describe(cfg.Source)))
	fmt.Fprintf(&b, "- Saved locally to %s<br>", html.EscapeString(cfg.Staging.Directory))
	if cfg.Encryption.Enabled {
		b.WriteString("- Encrypted before upload<br>")
	}
	fmt.Fprintf(&b, "- Sent to %s<br><br>", html.EscapeString(describe(cfg.Destination)))
	fmt.Fprintf(&b, "Program completed on %s.", res.Started.Format("2006-01-02"))

	return notify.Message{
		Subject: successSubject(cfg),
		Body:    b.String(),
		HTML:    true,
	}
}

func failureMessage(cfg *config.Config, res *RunResult) notify.Message {
	var b strings.Builder

	if res.Err != nil {
		b.WriteString("The following error occurred during execution:<br><br>")
		fmt.Fprintf(&b, "<pre>%s</pre><br>", html.EscapeString(res.Err.Error()))
	}

	failed := res.Failed()
	if len(failed) > 0 {
		fmt.Fprintf(&b, "%d of %d file(s) were not transferred and will be retried on the next run:<br>",
			len(failed), len(res.Candidates))
		b.WriteString("<ul>")
		for _, c := range failed {
			reason := "not attempted"
			if c.Err != nil {
				reason = fmt.Sprintf("%s failed: %s", c.Stage, c.Err)
			}
			fmt.Fprintf(&b, "<li><b>%s</b>: %s</li>", html.EscapeString(c.Entry.Name), html.EscapeString(reason))
		}
		b.WriteString("</ul>")
	}

	if uploaded := res.Uploaded(); len(uploaded) > 0 {
		b.WriteString("These file(s) were transferred:<br><ul>")
		for _, c := range uploaded {
			fmt.Fprintf(&b, "<li>%s to %s</li>", html.EscapeString(c.Entry.Name), html.EscapeString(c.RemotePath))
		}
		b.WriteString("</ul>")
	}

	b.WriteString("<br>Please check the logs for details.")

	return notify.Message{
		Subject: failureSubject(cfg),
		Body:    b.String(),
		HTML:    true,
	}
}
