package main

import (
	"fmt"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/weberc2/diskfs/pkg/device"
	"github.com/weberc2/diskfs/pkg/filesystem"
	"github.com/weberc2/diskfs/pkg/types"
)

func main() {
	config, err := LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	imageFlag := &cli.StringFlag{
		Name:  "image",
		Usage: "path to the volume image file",
		Value: config.Image,
	}
	sectorsFlag := &cli.IntFlag{
		Name:  "sectors",
		Usage: "volume size in 512-byte sectors",
		Value: config.Sectors,
	}

	app := &cli.App{
		Name:  "diskfs",
		Usage: "operate on a diskfs volume image",
		Flags: []cli.Flag{imageFlag, sectorsFlag},
		Commands: []*cli.Command{{
			Name:  "format",
			Usage: "write a fresh filesystem onto the image",
			Action: func(c *cli.Context) error {
				return withFS(c, true, func(p *filesystem.Process) error {
					return nil
				})
			},
		}, {
			Name:  "info",
			Usage: "print volume identity and allocator census",
			Action: func(c *cli.Context) error {
				return withFS(c, false, func(p *filesystem.Process) error {
					return nil
				})
			},
		}, {
			Name:      "ls",
			Usage:     "list a directory",
			ArgsUsage: "[PATH]",
			Action: func(c *cli.Context) error {
				path := c.Args().First()
				if path == "" {
					path = "/"
				}
				return withFS(c, false, func(p *filesystem.Process) error {
					fd := p.Open(path)
					if fd < 0 {
						return fmt.Errorf("opening `%s`: not found", path)
					}
					defer p.Close(fd)
					if !p.Isdir(fd) {
						return fmt.Errorf("`%s`: not a directory", path)
					}
					for {
						name, ok := p.Readdir(fd)
						if !ok {
							return nil
						}
						fmt.Println(name)
					}
				})
			},
		}, {
			Name:      "mkdir",
			Usage:     "create a directory",
			ArgsUsage: "PATH",
			Action: func(c *cli.Context) error {
				return withFS(c, false, func(p *filesystem.Process) error {
					if !p.Mkdir(c.Args().First()) {
						return fmt.Errorf(
							"creating directory `%s`",
							c.Args().First(),
						)
					}
					return nil
				})
			},
		}, {
			Name:      "rm",
			Usage:     "remove a file or empty directory",
			ArgsUsage: "PATH",
			Action: func(c *cli.Context) error {
				return withFS(c, false, func(p *filesystem.Process) error {
					if !p.Remove(c.Args().First()) {
						return fmt.Errorf(
							"removing `%s`",
							c.Args().First(),
						)
					}
					return nil
				})
			},
		}, {
			Name:      "cat",
			Usage:     "copy a file's contents to stdout",
			ArgsUsage: "PATH",
			Action: func(c *cli.Context) error {
				path := c.Args().First()
				return withFS(c, false, func(p *filesystem.Process) error {
					fd := p.Open(path)
					if fd < 0 {
						return fmt.Errorf("opening `%s`: not found", path)
					}
					defer p.Close(fd)
					buf := make([]byte, types.SectorSize)
					for {
						n := p.Read(fd, buf)
						if n <= 0 {
							return nil
						}
						if _, err := os.Stdout.Write(buf[:n]); err != nil {
							return err
						}
					}
				})
			},
		}, {
			Name:      "import",
			Usage:     "copy a host file into the volume",
			ArgsUsage: "HOST_PATH PATH",
			Action: func(c *cli.Context) error {
				host := c.Args().Get(0)
				path := c.Args().Get(1)
				data, err := os.ReadFile(host)
				if err != nil {
					return fmt.Errorf("reading `%s`: %w", host, err)
				}
				if len(data) > int(types.MaxFileLength) {
					return fmt.Errorf(
						"`%s` is `%d` bytes; the maximum file size is `%d`",
						host,
						len(data),
						types.MaxFileLength,
					)
				}
				return withFS(c, false, func(p *filesystem.Process) error {
					if !p.Create(path, 0) {
						return fmt.Errorf("creating `%s`", path)
					}
					fd := p.Open(path)
					if fd < 0 {
						return fmt.Errorf("opening `%s`", path)
					}
					defer p.Close(fd)
					if n := p.Write(fd, data); n != len(data) {
						return fmt.Errorf(
							"writing `%s`: wrote `%d` of `%d` bytes",
							path,
							n,
							len(data),
						)
					}
					return nil
				})
			},
		}, {
			Name:      "export",
			Usage:     "copy a file out of the volume",
			ArgsUsage: "PATH HOST_PATH",
			Action: func(c *cli.Context) error {
				path := c.Args().Get(0)
				host := c.Args().Get(1)
				return withFS(c, false, func(p *filesystem.Process) error {
					fd := p.Open(path)
					if fd < 0 {
						return fmt.Errorf("opening `%s`: not found", path)
					}
					defer p.Close(fd)
					data := make([]byte, p.Filesize(fd))
					if n := p.Read(fd, data); n != len(data) {
						return fmt.Errorf(
							"reading `%s`: read `%d` of `%d` bytes",
							path,
							n,
							len(data),
						)
					}
					return os.WriteFile(host, data, 0644)
				})
			},
		}},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// withFS mounts the image, runs fn as process 0, prints the volume
// identity, and persists the allocator on the way out.
func withFS(
	c *cli.Context,
	format bool,
	fn func(p *filesystem.Process) error,
) error {
	dev, err := device.OpenFileDevice(
		c.String("image"),
		types.SectorIdx(c.Int("sectors")),
	)
	if err != nil {
		return err
	}
	defer dev.Close()

	fs, err := filesystem.Mount(dev, format)
	if err != nil {
		return err
	}

	proc, err := fs.Spawn(0)
	if err != nil {
		return err
	}

	if err := fn(proc); err != nil {
		proc.Exit()
		fs.Shutdown()
		return err
	}
	proc.Exit()

	log.Printf(
		"volume `%s`: `%d` of `%d` sectors in use",
		fs.VolumeID(),
		fs.SectorsInUse(),
		dev.SectorCount(),
	)
	return fs.Shutdown()
}
