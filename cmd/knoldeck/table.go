package main

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/scheduler"
)

const maxCellWidth = 40

func renderCards(cards []domain.Card, now time.Time, csv bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "Front", "Back", "Audio", "Interval", "Due"})

	for _, c := range cards {
		tw.AppendRow(table.Row{
			c.ID,
			c.Front,
			c.Back,
			c.AudioRef,
			strconv.Itoa(c.Interval),
			dueLabel(c, now),
		})
	}

	if csv {
		return tw.RenderCSV()
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: maxCellWidth},
		{Number: 3, WidthMax: maxCellWidth},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	tw.AppendFooter(table.Row{"", "", "", "", "due", strconv.Itoa(scheduler.DueCount(cards, now))})
	return tw.Render()
}

func dueLabel(c domain.Card, now time.Time) string {
	if scheduler.IsDue(c, now) {
		return "now"
	}
	return humanize.RelTime(c.NextReview, now, "ago", "from now")
}
