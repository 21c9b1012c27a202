package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/b0bbywan/go-rtkit/rtkit"
)

func (a *app) realtimeCmd() *cobra.Command {
	var (
		thread   threadFlags
		priority uint32
	)
	cmd := &cobra.Command{
		Use:   "realtime",
		Short: "Make a thread realtime (SCHED_RR)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.promote(cmd, thread, rtkit.RealtimeRequest(priority))
		},
	}
	thread.register(cmd.Flags())
	cmd.Flags().Uint32Var(&priority, "priority", 1, "realtime priority, at most MaxRealtimePriority")
	return cmd
}

func (a *app) highCmd() *cobra.Command {
	var (
		thread threadFlags
		nice   int32
	)
	cmd := &cobra.Command{
		Use:   "high",
		Short: "Raise a thread's nice level",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.promote(cmd, thread, rtkit.HighPriorityRequest(nice))
		},
	}
	thread.register(cmd.Flags())
	cmd.Flags().Int32Var(&nice, "nice", -10, "nice level, at least MinNiceLevel")
	return cmd
}

func (a *app) promote(cmd *cobra.Command, thread threadFlags, req rtkit.Request) error {
	// A defaulted tid designates this goroutine's thread, which must stay put.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	tid := thread.tid
	if tid == 0 {
		tid = rtkit.CurrentThreadID()
	}
	return a.withClient(cmd.Context(), func(client Client) error {
		if err := client.Apply(cmd.Context(), thread.pid, tid, req); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "thread %d of process %d set to %s\n", tid, pidOrSelf(thread.pid), req)
		return nil
	})
}

func pidOrSelf(pid uint64) uint64 {
	if pid == 0 {
		return rtkit.CurrentProcessID()
	}
	return pid
}

func (a *app) resetKnownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-known",
		Short: "Reset the threads the daemon promoted for this caller",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd.Context(), func(client Client) error {
				if err := client.ResetKnown(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "known threads reset")
				return nil
			})
		},
	}
}

func (a *app) resetAllCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-all",
		Short: "Reset every thread the daemon promoted (privileged)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withClient(cmd.Context(), func(client Client) error {
				if err := client.ResetAll(cmd.Context()); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "all threads reset")
				return nil
			})
		},
	}
}
