// Package shell is flintdb's interactive REPL: prompt, line editing and
// history via github.com/chzyer/readline, and result rendering. Recovered
// from original_source/src/repl.rs and the teacher's
// command.go/statement.go/io.go. Their MetaCommandResult is kept for
// handleMetaCommand below; there is no PrepareResult step, and any other
// line goes straight to sql.Parse.
package shell

import (
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"

	"github.com/flintdb/flintdb/internal/session"
	"github.com/flintdb/flintdb/internal/sql"
	"go.uber.org/zap"
)

// MetaCommandResult reports whether a line was a recognized "."-command.
type MetaCommandResult int

const (
	MetaCommandNotMeta MetaCommandResult = iota
	MetaCommandHandled
	MetaCommandExit
)

// Shell drives one interactive session until ".exit" or EOF.
type Shell struct {
	session *session.Session
	rl      *readline.Instance
	out     io.Writer
	log     *zap.Logger
}

// New builds a Shell bound to sess, reading history from historyPath.
func New(sess *session.Session, historyPath string, log *zap.Logger) (*Shell, error) {
	if log == nil {
		log = zap.NewNop()
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "flintdb> ",
		HistoryFile:     historyPath,
		InterruptPrompt: "^C",
		EOFPrompt:       ".exit",
	})
	if err != nil {
		return nil, err
	}
	return &Shell{session: sess, rl: rl, out: rl.Stdout(), log: log}, nil
}

// Close releases the line editor and the underlying session.
func (s *Shell) Close() error {
	s.rl.Close()
	return s.session.Close()
}

// Run reads lines until ".exit" or EOF, dispatching each to a meta-command
// handler or the SQL executor.
func (s *Shell) Run() error {
	for {
		line, err := s.rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		result := s.handleMetaCommand(line)
		switch result {
		case MetaCommandExit:
			return nil
		case MetaCommandHandled:
			continue
		}

		if err := s.execute(line); err != nil {
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

func (s *Shell) handleMetaCommand(line string) MetaCommandResult {
	switch line {
	case ".exit":
		return MetaCommandExit
	case ".help":
		fmt.Fprintln(s.out, ".exit         leave the shell")
		fmt.Fprintln(s.out, ".databases    list databases")
		fmt.Fprintln(s.out, ".tables       list tables in the active database")
		fmt.Fprintln(s.out, ".help         show this message")
		return MetaCommandHandled
	case ".databases":
		s.runMetaQuery("SHOW DATABASES")
		return MetaCommandHandled
	case ".tables":
		s.runMetaQuery("SHOW TABLES")
		return MetaCommandHandled
	default:
		return MetaCommandNotMeta
	}
}

func (s *Shell) runMetaQuery(src string) {
	if err := s.execute(src); err != nil {
		fmt.Fprintf(s.out, "error: %v\n", err)
	}
}

func (s *Shell) execute(src string) error {
	stmt, err := sql.Parse(src)
	if err != nil {
		return err
	}
	result, err := sql.Execute(s.session, stmt)
	if err != nil {
		return err
	}
	s.render(result)
	return nil
}

func (s *Shell) render(r sql.Result) {
	if r.Message != "" {
		fmt.Fprintln(s.out, r.Message)
	}
	if len(r.Columns) == 0 {
		return
	}
	fmt.Fprintln(s.out, strings.Join(r.Columns, "\t"))
	for _, row := range r.Rows {
		fmt.Fprintln(s.out, strings.Join(row, "\t"))
	}
	fmt.Fprintf(s.out, "(%d rows)\n", len(r.Rows))
}
