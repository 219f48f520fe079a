package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/scheduler"
	"github.com/conorfennell/knoldeck/internal/session"
)

var (
	errQuit       = errors.New("review ended by user")
	errDailyLimit = errors.New("daily limit reached")
)

// dailyLimits caps the cards judged per day. Review counts every judgement,
// New only first reviews.
type dailyLimits struct {
	New    int
	Review int
}

// reviewLoop shows due cards one at a time until none are due or the reviewer
// stops. Quitting and end of input return errQuit; reaching a daily cap
// returns errDailyLimit. It returns the number of cards judged.
func reviewLoop(ctx context.Context, s *session.Session, deckName string, sc *bufio.Scanner, out io.Writer, limits dailyLimits) (int, error) {
	reviewed := 0
	for {
		if err := ctx.Err(); err != nil {
			return reviewed, err
		}

		stats := s.Stats()
		if stats.Reviewed >= limits.Review {
			fmt.Fprintf(out, "Daily review limit reached (%d/%d).\n", stats.Reviewed, limits.Review)
			return reviewed, errDailyLimit
		}

		card, err := s.Next(deckName)
		if err == nil && s.IsNew(card.ID) && stats.New >= limits.New {
			card, err = s.NextSeen(deckName)
			if errors.Is(err, scheduler.ErrNoCardsDue) {
				fmt.Fprintf(out, "Daily new card limit reached (%d/%d).\n", stats.New, limits.New)
				return reviewed, errDailyLimit
			}
		}
		if errors.Is(err, scheduler.ErrNoCardsDue) {
			fmt.Fprintln(out, "No cards due.")
			return reviewed, nil
		}
		if err != nil {
			return reviewed, err
		}

		fmt.Fprintf(out, "\n%s\n", card.Front)
		if card.HasAudio() {
			fmt.Fprintf(out, "  (audio: %s)\n", card.AudioRef)
		}
		fmt.Fprintf(out, "  -> %s\n", card.Back)

		outcome, ok, err := prompt(sc, out)
		if err != nil {
			return reviewed, err
		}
		if !ok {
			return reviewed, errQuit
		}

		updated, err := s.Judge(deckName, card.ID, outcome)
		if err != nil {
			return reviewed, err
		}
		reviewed++
		fmt.Fprintf(out, "Next review %s.\n", humanize.RelTime(updated.NextReview, time.Now(), "ago", "from now"))
	}
}

// prompt reads answers until a valid outcome arrives. ok is false when the
// reviewer quits or input ends.
func prompt(sc *bufio.Scanner, out io.Writer) (domain.ReviewOutcome, bool, error) {
	for {
		fmt.Fprint(out, "again / good / quit > ")
		if !sc.Scan() {
			return "", false, sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch strings.ToLower(line) {
		case "q", "quit":
			return "", false, nil
		case "a":
			line = string(domain.ReviewOutcomeAgain)
		case "g":
			line = string(domain.ReviewOutcomeGood)
		}
		outcome, err := domain.ParseReviewOutcome(line)
		if err != nil {
			fmt.Fprintln(out, "Please answer again or good.")
			continue
		}
		return outcome, true, nil
	}
}
