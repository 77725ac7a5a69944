package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/johannes-kuhfuss/pubwizard/domain"
	"github.com/johannes-kuhfuss/pubwizard/service"
)

const pdbWaitTimeout = 10 * time.Second

// wizard is the terminal rendition of the publication form dialog
type wizard struct {
	pipeline     *service.PagePipeline
	experiments  []domain.Experiment
	experimentId int64
	in           *bufio.Scanner
	out          io.Writer
}

// readLine returns the next trimmed input line, or an empty string once the input is exhausted
func readLine(in *bufio.Scanner) string {
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

// ask prints a prompt and returns the answer. An empty answer keeps current
func (w *wizard) ask(prompt string, current string) string {
	if current != "" {
		fmt.Fprintf(w.out, "%v [%v]: ", prompt, current)
	} else {
		fmt.Fprintf(w.out, "%v: ", prompt)
	}
	answer := readLine(w.in)
	if answer == "" {
		return current
	}
	return answer
}

// run shows the pages until the form is closed and returns the publication id it was closed with
func (w *wizard) run(ctx context.Context) *int64 {
	store := w.pipeline.Store()
	for {
		page := w.pipeline.CurrentPage()
		fmt.Fprintf(w.out, "\r\n== Page %d of %d %v\r\n", w.pipeline.CurrentIndex()+1, w.pipeline.TotalPages(), page.Title)
		switch w.pipeline.CurrentIndex() {
		case 0:
			fmt.Fprintln(w.out, "This wizard creates a publication from your datasets.")
		case 1:
			w.editDatasetSelection()
		case 2:
			w.editExtraInfo(ctx)
		case 3:
			w.editAttribution()
		}
		if w.pipeline.IsComplete() {
			fmt.Fprintln(w.out, "Your publication has been submitted.")
			return store.Draft().PublicationID
		}

		fmt.Fprint(w.out, "[n]ext, [b]ack, [s]ave and close, [q]uit: ")
		if !w.in.Scan() {
			return nil
		}
		switch strings.ToLower(strings.TrimSpace(w.in.Text())) {
		case "n", "":
			if err := w.pipeline.Advance(ctx); err != nil {
				for _, msg := range w.pipeline.ErrorMessages() {
					fmt.Fprintf(w.out, "! %v\r\n", msg)
				}
			}
		case "b":
			closeWizard, err := w.pipeline.Retreat()
			if err != nil {
				fmt.Fprintf(w.out, "! %v\r\n", err)
			}
			if closeWizard {
				return nil
			}
		case "s":
			publicationId, err := w.pipeline.SaveAndClose(ctx)
			if err == nil {
				return publicationId
			}
			for _, msg := range w.pipeline.ErrorMessages() {
				fmt.Fprintf(w.out, "! %v\r\n", msg)
			}
		case "q":
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// parseIds reads a comma separated list of ids
func parseIds(s string) []int64 {
	ids := []int64{}
	for _, f := range strings.Split(s, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(f), 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

func (w *wizard) editDatasetSelection() {
	store := w.pipeline.Store()
	draft := store.Draft()
	store.SetTitle(w.ask("Title", draft.PublicationTitle))
	store.SetDescription(w.ask("Description", draft.PublicationDescription))

	experiment, ok := service.SelectExperiment(w.experiments, w.experimentId)
	if len(w.experiments) > 0 {
		for _, e := range w.experiments {
			fmt.Fprintf(w.out, "  experiment %d: %v\r\n", e.ID, e.Title)
		}
		current := ""
		if ok {
			current = strconv.FormatInt(experiment.ID, 10)
		}
		if id, err := strconv.ParseInt(w.ask("Experiment to pick datasets from", current), 10, 64); err == nil {
			experiment, ok = service.SelectExperiment(w.experiments, id)
		}
	}
	if ok {
		available := service.RemoveMatchingDatasets(experiment.Datasets, store.Draft().AddedDatasets)
		for _, ds := range available {
			fmt.Fprintf(w.out, "  dataset %d: %v\r\n", ds.ID, ds.Description)
		}
		add := []domain.Dataset{}
		for _, id := range parseIds(w.ask("Datasets to add (comma separated)", "")) {
			for _, ds := range available {
				if ds.ID == id {
					add = append(add, ds)
				}
			}
		}
		store.AddDatasets(experiment, add)
	}

	added := store.Draft().AddedDatasets
	for _, a := range added {
		fmt.Fprintf(w.out, "  selected %d: %v (%v)\r\n", a.Dataset.ID, a.Dataset.Description, a.Experiment)
	}
	if len(added) > 0 {
		for _, id := range parseIds(w.ask("Datasets to remove (comma separated)", "")) {
			for _, a := range added {
				if a.Dataset.ID == id {
					store.RemoveDataset(a)
				}
			}
		}
	}
}

func (w *wizard) editExtraInfo(ctx context.Context) {
	store := w.pipeline.Store()
	profile := w.pipeline.Profile()
	for _, field := range profile.ExtraInfo {
		label := field.Label
		if label == "" {
			label = field.Key
		}
		current := store.Draft().ExtraInfoText(field.Key)
		if answer := w.ask(label, current); answer != current {
			store.SetExtraInfo(field.Key, answer)
		}
	}
	lookup := w.pipeline.Pdb()
	if !profile.RequirePdb || lookup == nil {
		return
	}
	previous := store.Draft().ExtraInfoText("pdbId")
	pdbId := w.ask("PDB ID", previous)
	if pdbId == "" {
		return
	}
	if ok, _ := lookup.Check(store.Draft()); ok && pdbId == previous {
		return
	}
	store.SetExtraInfo("pdbId", pdbId)
	done := make(chan struct{}, 1)
	lookup.Search(ctx, pdbId, func(string, domain.PdbInfo, error) {
		done <- struct{}{}
	})
	fmt.Fprintln(w.out, "Searching PDB...")
	select {
	case <-done:
	case <-time.After(pdbWaitTimeout):
	}
	if lookup.OK() {
		if info := store.Draft().PdbInfo; info != nil {
			fmt.Fprintf(w.out, "  found %v\r\n", info.Title)
		}
	} else {
		fmt.Fprintln(w.out, "  PDB ID not found")
	}
}

func (w *wizard) editAttribution() {
	store := w.pipeline.Store()
	for idx, author := range store.Draft().Authors {
		fmt.Fprintf(w.out, "Author %d\r\n", idx+1)
		store.SetAuthor(idx, domain.Author{
			Name:        w.ask("  Name", author.Name),
			Institution: w.ask("  Institution", author.Institution),
			Email:       w.ask("  Email", author.Email),
		})
	}
	for strings.EqualFold(w.ask("Add another author? [y/N]", ""), "y") {
		store.AddAuthorEntry()
		idx := len(store.Draft().Authors) - 1
		store.SetAuthor(idx, domain.Author{
			Name:        w.ask("  Name", ""),
			Institution: w.ask("  Institution", ""),
			Email:       w.ask("  Email", ""),
		})
	}

	acknowledgements := w.pipeline.Profile().Acknowledgements
	for i, a := range acknowledgements {
		fmt.Fprintf(w.out, "  acknowledgement %d: %v\r\n", i+1, a.Agency)
	}
	for _, n := range parseIds(w.ask("Acknowledgements to copy (comma separated)", "")) {
		if n >= 1 && int(n) <= len(acknowledgements) {
			store.CopyAcknowledgement(acknowledgements[n-1].Text)
		}
	}
	if text := w.ask("Acknowledgements", store.Draft().Acknowledgements); text != store.Draft().Acknowledgements {
		store.Update(func(d *domain.Draft) { d.Acknowledgements = text })
	}

	if licenses := store.Draft().Licenses; len(licenses) > 0 {
		for _, l := range licenses {
			fmt.Fprintf(w.out, "  license %d: %v\r\n", l.ID, l.Name)
		}
		current := ""
		if id := store.Draft().SelectedLicenseID; id != nil {
			current = strconv.FormatInt(*id, 10)
		}
		if id, err := strconv.ParseInt(w.ask("License", current), 10, 64); err == nil {
			store.SelectLicense(id)
		}
	}

	w.editEmbargo()
}

// editEmbargo asks for the release date until it is empty, "today" or a valid date
func (w *wizard) editEmbargo() {
	store := w.pipeline.Store()
	for {
		current := ""
		if e := store.Draft().Embargo; e != nil {
			current = e.Format("2006-01-02")
		}
		answer := w.ask("Release date as YYYY-MM-DD or today", current)
		if answer == "" || answer == current {
			return
		}
		if strings.EqualFold(answer, "today") {
			store.SetEmbargoToToday()
			return
		}
		d, err := time.Parse("2006-01-02", answer)
		if err != nil {
			fmt.Fprintln(w.out, "Release date must be entered as YYYY-MM-DD.")
			continue
		}
		store.SetEmbargo(&d)
		return
	}
}
