package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/dthelegend/diss/internal/backend"
	"github.com/dthelegend/diss/internal/device"
)

func devicesCmd() *cli.Command {
	return &cli.Command{
		Name:  "devices",
		Usage: "List device backends and the devices they expose",
		Flags: deviceFlags(),
		Action: withConfig(func(ctx context.Context, cmd *cli.Command, cfg Config) error {
			applyDeviceConfig(cmd, cfg)
			u := newUI(cmd.Root().Writer)
			for _, name := range []string{backend.Sim, backend.CUDA} {
				u.title(name)
				if !backend.Has(name) {
					u.status("status", false, "not compiled in")
					continue
				}
				if err := describeBackend(ctx, u, name); err != nil {
					u.status("status", false, err.Error())
				}
			}
			return nil
		}),
	}
}

func describeBackend(ctx context.Context, u *ui, name string) (err error) {
	rt, err := backend.Open(ctx, name, backendOptions())
	if err != nil {
		return err
	}
	defer closeRuntime(rt, &err)

	var count int
	if err := device.Check(rt.DeviceCount(&count)); err != nil {
		return err
	}
	var props device.Properties
	if err := device.Check(rt.Properties(&props)); err != nil {
		return err
	}
	u.status("status", true, "available")
	u.field("devices", count)
	u.field("name", props.Name)
	u.field("ordinal", props.Ordinal)
	u.field("memory", fmt.Sprintf("%.1f MiB", float64(props.MemoryBytes)/(1<<20)))
	u.field("compute", props.ComputeCap)
	return nil
}
