package main

import (
	"tripgraph/application/services"
	"tripgraph/domain/core/entities"
	"tripgraph/infrastructure/gateway"
	"tripgraph/pkg/observability"

	"github.com/spf13/cobra"
)

var (
	addDescription string

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "Print the stored events in timeline order",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}

	addCmd = &cobra.Command{
		Use:   "add [title]",
		Short: "Append an event to the end of the timeline",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runAdd,
	}

	renameCmd = &cobra.Command{
		Use:   "rename <event-id> <title>",
		Short: "Change the title of an event",
		Args:  cobra.ExactArgs(2),
		RunE:  runRename,
	}

	removeCmd = &cobra.Command{
		Use:     "remove <event-id>",
		Aliases: []string{"rm"},
		Short:   "Delete an event; its neighbours are joined",
		Args:    cobra.ExactArgs(1),
		RunE:    runRemove,
	}

	graphCmd = &cobra.Command{
		Use:   "graph",
		Short: "Print the timeline as nodes and edges",
		Args:  cobra.NoArgs,
		RunE:  runGraph,
	}
)

func init() {
	addCmd.Flags().StringVarP(&addDescription, "description", "d", "", "event description")
}

func runList(cmd *cobra.Command, _ []string) error {
	gw, err := gateway.NewHTTPGateway(plannerCfg, observability.NewTracer("tripctl", false), logger)
	if err != nil {
		return err
	}
	stored, err := gw.FetchAll(cmd.Context())
	if err != nil {
		return err
	}
	entities.SortByCreation(stored)
	if stored == nil {
		stored = []*entities.Event{}
	}
	return printJSON(cmd.OutOrStdout(), stored)
}

func runAdd(cmd *cobra.Command, args []string) error {
	draft := entities.EventDraft{Description: addDescription}
	if len(args) == 1 {
		draft.Title = args[0]
	}

	svc, err := runOneShot(cmd.Context(), func(s *services.TimelineService) error {
		_, err := s.Append(cmd.Context(), draft)
		return err
	})
	if err != nil {
		return err
	}

	// the appended event is last and carries the store's id by now
	evts := svc.Events()
	return printJSON(cmd.OutOrStdout(), evts[len(evts)-1])
}

func runRename(cmd *cobra.Command, args []string) error {
	var renamed *entities.Event
	_, err := runOneShot(cmd.Context(), func(s *services.TimelineService) error {
		var err error
		renamed, err = s.Rename(cmd.Context(), args[0], args[1])
		return err
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), renamed)
}

func runRemove(cmd *cobra.Command, args []string) error {
	svc, err := runOneShot(cmd.Context(), func(s *services.TimelineService) error {
		return s.Remove(cmd.Context(), args[0])
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), svc.Graph())
}

func runGraph(cmd *cobra.Command, _ []string) error {
	svc, err := runOneShot(cmd.Context(), func(*services.TimelineService) error { return nil })
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), svc.Graph())
}
