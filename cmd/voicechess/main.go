package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"github.com/park285/voicechess/internal/assist"
	appcfg "github.com/park285/voicechess/internal/config"
	"github.com/park285/voicechess/internal/domain"
	"github.com/park285/voicechess/internal/intent"
	"github.com/park285/voicechess/internal/interpreter"
	"github.com/park285/voicechess/internal/msgcat"
	"github.com/park285/voicechess/internal/obslog"
	"github.com/park285/voicechess/internal/openings"
	"github.com/park285/voicechess/internal/rules"
	"github.com/park285/voicechess/internal/session"
	"github.com/park285/voicechess/internal/speechtext"
	"github.com/park285/voicechess/internal/sttfeed"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.InitFromEnv(); err != nil {
		log.Fatalf("logger init error: %v", err)
	}

	messages, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		log.Fatalf("message catalog error: %v", err)
	}

	openingIndex, err := openings.NewIndex()
	if err != nil {
		log.Fatalf("opening index error: %v", err)
	}

	opts := []interpreter.Option{}
	var classifier *intent.Classifier
	if cfg.UseLocalIntent {
		if cfg.IntentCatalogPath != "" {
			classifier, err = intent.Load(cfg.IntentCatalogPath)
			if err != nil {
				obslog.L().Warn("intent_catalog_unavailable",
					zap.String("path", cfg.IntentCatalogPath), zap.Error(err))
			}
		} else {
			classifier, err = intent.NewDefault()
			if err != nil {
				log.Fatalf("intent catalog error: %v", err)
			}
		}
		if classifier != nil {
			opts = append(opts, interpreter.WithLocalIntent(classifier))
		}
	}
	if cfg.RemoteEnabled {
		opts = append(opts, interpreter.WithRemoteAssistant(assist.NewClient()))
	}

	app := &app{
		cfg:      cfg,
		messages: messages,
		openings: openingIndex,
		intent:   classifier,
		game:     nchess.NewGame(),
		userSide: domain.White,
	}

	if cfg.RedisURL != "" {
		store, err := session.NewStore(cfg.RedisURL, time.Duration(cfg.SessionTTLSec)*time.Second)
		if err != nil {
			log.Fatalf("session store error: %v", err)
		}
		defer store.Close()
		app.store = store
		sess, err := store.Create(context.Background())
		if err != nil {
			log.Fatalf("session create error: %v", err)
		}
		app.sess = sess
		obslog.L().Info("session_started", zap.String("session_id", sess.ID))
	}

	interp := interpreter.New(messages, opts...)
	dispatcher := interpreter.NewDispatcher(interp, app.handleAction)

	stopCh := make(chan struct{})
	var stopOnce sync.Once

	dispatchUtterance := func(u domain.Utterance) {
		in := app.snapshotInput(u)
		dispatcher.Dispatch(context.Background(), in)
	}

	if cfg.SttWSURL != "" {
		feed := sttfeed.New(cfg.SttWSURL, 5, time.Second)
		feed.OnStateChange(func(s sttfeed.State) {
			obslog.L().Info("stt_feed_state", zap.String("state", s.String()))
		})
		feed.OnUtterance(func(u sttfeed.Utterance) {
			dispatchUtterance(domain.Utterance{Text: u.Text, Confidence: u.Confidence})
		})
		cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := feed.Connect(cctx)
		cancel()
		if err != nil {
			obslog.L().Warn("stt_feed_connect_failed", zap.Error(err))
		}
		defer feed.Close(context.Background())
	}

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			dispatchUtterance(domain.Utterance{Text: line})
		}
		stopOnce.Do(func() { close(stopCh) })
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case <-stopCh:
	}

	dispatcher.Wait()
}

// app owns the mutable game state the interpreter reads snapshots of.
// handleAction runs on dispatcher goroutines, one at a time.
type app struct {
	cfg      *appcfg.AppConfig
	messages *msgcat.Catalog
	openings *openings.Index
	intent   *intent.Classifier

	store *session.Store
	sess  *session.Session

	mu       sync.Mutex
	game     *nchess.Game
	moves    []string // UCI, in play order
	undone   []string // redo stack, most recent undo last
	flipped  bool
	userSide domain.Color
}

// snapshotInput captures the legal-move set and game context for one
// utterance. The snapshot stays attached to that utterance even if the
// game advances before interpretation finishes.
func (a *app) snapshotInput(u domain.Utterance) interpreter.Input {
	a.mu.Lock()
	defer a.mu.Unlock()
	legal, gctx := rules.Snapshot(a.game)
	return interpreter.Input{
		Text:       u.Text,
		Confidence: u.Confidence,
		FEN:        rules.FEN(a.game),
		LegalMoves: legal,
		Context:    gctx,
		Assistant:  a.cfg.AssistantConfig(),
	}
}

func (a *app) handleAction(action domain.Action) {
	a.mu.Lock()
	defer a.mu.Unlock()

	switch action.Kind {
	case domain.ActionMove:
		a.applyMove(*action.Move)
	case domain.ActionCommand:
		a.applyCommand(*action.Command)
	case domain.ActionSpeak:
		a.speak(action.Text)
	default:
		reason := action.Reason
		if reason == "" {
			reason = a.messages.Text("feedback.unrecognized")
		}
		a.speak(reason)
	}
}

func (a *app) applyMove(mv domain.LegalMove) {
	if a.game.Outcome() != nchess.NoOutcome {
		a.speak(a.messages.Text("feedback.game_over"))
		return
	}
	if err := rules.Apply(a.game, mv); err != nil {
		obslog.L().Error("move_apply_failed", zap.String("uci", mv.UCI), zap.Error(err))
		a.speak(a.messages.Text("feedback.illegal_move"))
		return
	}
	a.moves = append(a.moves, mv.UCI)
	a.undone = a.undone[:0]
	if a.store != nil && a.sess != nil {
		if err := a.store.PushMove(context.Background(), a.sess, mv.UCI); err != nil {
			obslog.L().Warn("session_persist_failed", zap.Error(err))
		}
	}

	a.speak(speechtext.TranslateSAN(mv.SAN, speechtext.Capitalized()))
	if a.game.Outcome() != nchess.NoOutcome {
		a.speak(a.messages.Text("feedback.game_over"))
	}
}

func (a *app) applyCommand(cmd domain.Command) {
	switch cmd.Kind {
	case domain.CmdNewGame:
		a.resetGame(nchess.NewGame(), nil)
		a.speak(a.messages.Text("confirm.new_game"))

	case domain.CmdUndo:
		if len(a.moves) == 0 {
			a.speak(a.messages.Text("replay.empty"))
			return
		}
		last := a.moves[len(a.moves)-1]
		a.moves = a.moves[:len(a.moves)-1]
		a.undone = append(a.undone, last)
		a.rebuildGame()
		if a.store != nil && a.sess != nil {
			if _, err := a.store.Undo(context.Background(), a.sess); err != nil {
				obslog.L().Warn("session_persist_failed", zap.Error(err))
			}
		}
		a.speak(a.messages.Text("confirm.undone"))

	case domain.CmdRedo:
		if len(a.undone) == 0 {
			a.speak(a.messages.Text("replay.empty"))
			return
		}
		mv := a.undone[len(a.undone)-1]
		a.undone = a.undone[:len(a.undone)-1]
		a.moves = append(a.moves, mv)
		a.rebuildGame()
		if a.store != nil && a.sess != nil {
			if _, err := a.store.Redo(context.Background(), a.sess); err != nil {
				obslog.L().Warn("session_persist_failed", zap.Error(err))
			}
		}
		a.speak(a.messages.Text("confirm.redone"))

	case domain.CmdAnalyze, domain.CmdEvaluate:
		a.speakAnalysis()

	case domain.CmdHint:
		a.speakHint()

	case domain.CmdReplay:
		a.speakReplay()

	case domain.CmdShowPuzzles:
		a.speakPuzzleThemes()

	case domain.CmdPracticePuzzles:
		a.speakPracticePuzzles(cmd.Arg)

	case domain.CmdPlayOpening:
		a.playOpening(cmd.Arg)

	case domain.CmdLookupOpening:
		a.lookupOpening(cmd.Arg)

	case domain.CmdResign:
		a.game.Resign(colorToLib(a.userSide))
		a.speak(a.messages.Text("confirm.resign"))

	case domain.CmdFlipBoard:
		a.flipped = !a.flipped
		if a.store != nil && a.sess != nil {
			_ = a.store.SetFlipped(context.Background(), a.sess, a.flipped)
		}
		a.speak(a.messages.Text("confirm.flipped"))

	case domain.CmdSwitchSides:
		if a.userSide == domain.White {
			a.userSide = domain.Black
		} else {
			a.userSide = domain.White
		}
		a.speak(a.messages.Text("confirm.switched"))

	default:
		a.speak(a.messages.Text("feedback.unrecognized"))
	}
}

func (a *app) resetGame(game *nchess.Game, movesUCI []string) {
	a.game = game
	a.moves = append(a.moves[:0], movesUCI...)
	a.undone = a.undone[:0]
	if a.store != nil && a.sess != nil {
		_ = a.store.SetMoves(context.Background(), a.sess, a.moves)
	}
}

func (a *app) rebuildGame() {
	game := nchess.NewGame()
	for _, uci := range a.moves {
		if err := game.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
			obslog.L().Error("rebuild_failed", zap.String("uci", uci), zap.Error(err))
			break
		}
	}
	a.game = game
}

func (a *app) speakAnalysis() {
	side := "White"
	if a.game.Position().Turn() == nchess.Black {
		side = "Black"
	}
	if code, title := a.openings.Label(a.game); title != "" {
		a.speakKey("analysis.in_book", map[string]string{
			"Name": title, "Code": code, "Side": side,
		})
		return
	}
	a.speakKey("analysis.out_of_book", map[string]string{"Side": side})
}

func (a *app) speakHint() {
	legal, _ := rules.Snapshot(a.game)
	if len(legal) == 0 {
		a.speak(a.messages.Text("hint.none"))
		return
	}
	// Prefer a capture when one exists; otherwise the first legal move.
	pick := legal[0]
	for _, mv := range legal {
		if mv.Capture {
			pick = mv
			break
		}
	}
	a.speakKey("hint.suggest", map[string]string{
		"Move": speechtext.Describe(pick, false),
	})
}

func (a *app) speakReplay() {
	if len(a.moves) == 0 {
		a.speak(a.messages.Text("replay.empty"))
		return
	}
	sans := make([]string, 0, len(a.moves))
	game := nchess.NewGame()
	for _, uci := range a.moves {
		pos := game.Position()
		if err := game.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
			break
		}
		history := game.Moves()
		san := nchess.AlgebraicNotation{}.Encode(pos, history[len(history)-1])
		sans = append(sans, speechtext.TranslateSAN(san))
	}
	a.speakKey("replay.line", map[string]string{"Line": strings.Join(sans, "; ")})
}

func (a *app) speakPuzzleThemes() {
	if a.intent == nil {
		a.speak(a.messages.Text("feedback.unrecognized"))
		return
	}
	themes := a.intent.PuzzleThemes()
	if len(themes) == 0 {
		a.speak(a.messages.Text("feedback.unrecognized"))
		return
	}
	a.speakKey("puzzle.themes", map[string]string{"Themes": strings.Join(themes, ", ")})
}

func (a *app) speakPracticePuzzles(theme string) {
	if a.intent != nil {
		for _, known := range a.intent.PuzzleThemes() {
			if strings.EqualFold(known, theme) {
				a.speakKey("puzzle.practicing", map[string]string{"Theme": known})
				return
			}
		}
	}
	a.speakKey("puzzle.unknown_theme", map[string]string{"Theme": theme})
}

func (a *app) playOpening(name string) {
	o, ok := a.openings.Lookup(name)
	if !ok {
		a.speakKey("opening.not_found", map[string]string{"Name": name})
		return
	}
	game, err := a.openings.SetUp(o)
	if err != nil {
		obslog.L().Error("opening_setup_failed", zap.String("name", o.Name), zap.Error(err))
		a.speakKey("opening.not_found", map[string]string{"Name": name})
		return
	}
	a.resetGame(game, o.Moves)
	a.speakKey("opening.playing", map[string]string{"Name": o.Name})
}

func (a *app) lookupOpening(name string) {
	o, ok := a.openings.Lookup(name)
	if !ok {
		a.speakKey("opening.not_found", map[string]string{"Name": name})
		return
	}
	a.speakKey("opening.found", map[string]string{"Name": o.Name, "Line": o.Line})
}

func (a *app) speakKey(key string, data map[string]string) {
	text, err := a.messages.Render(key, data)
	if err != nil {
		obslog.L().Error("message_render_failed", zap.String("key", key), zap.Error(err))
		return
	}
	a.speak(text)
}

func (a *app) speak(text string) {
	fmt.Println(text)
}

func colorToLib(c domain.Color) nchess.Color {
	if c == domain.Black {
		return nchess.Black
	}
	return nchess.White
}
