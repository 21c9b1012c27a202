package cmd

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/b0bbywan/go-rtkit/logger"
)

func bindFlag(v *viper.Viper, key string, flag *pflag.Flag) {
	if err := v.BindPFlag(key, flag); err != nil {
		logger.Fatal("[cmd] failed to bind --%s to %s: %v", flag.Name, key, err)
	}
}

// threadFlags are the --pid and --tid flags shared by the promotion commands.
type threadFlags struct {
	pid uint64
	tid uint64
}

func (f *threadFlags) register(flags *pflag.FlagSet) {
	flags.Uint64Var(&f.pid, "pid", 0, "process id, 0 for this process")
	flags.Uint64Var(&f.tid, "tid", 0, "thread id, 0 for the calling thread")
}
