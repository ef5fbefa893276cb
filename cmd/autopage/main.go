// Command autopage runs a small wiki whose pages can create other pages
// through the {{#createpage:Title|Content}} parser function.
package main

import (
	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/autopage/cmd/autopage/commands"
	"git.home.luguber.info/inful/autopage/internal/foundation/errors"
	"git.home.luguber.info/inful/autopage/internal/version"
)

func main() {
	cli := &commands.CLI{}
	global := &commands.Global{}
	ctx := kong.Parse(cli,
		kong.Name("autopage"),
		kong.Description("Wiki engine with automatic page creation"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
		kong.Bind(global),
	)
	err := ctx.Run(global, cli)
	errors.NewCLIErrorAdapter(cli.Verbose, global.Logger).HandleError(err)
}
