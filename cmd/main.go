package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"diligence/internal/bootstrap"
	domain "diligence/internal/domain/report"
	"diligence/pkg/logger"
)

func main() {
	var (
		companyFlag    = flag.String("company", "", "company profile to generate a report for")
		sectionsFlag   = flag.String("sections", "", "comma-separated subset of sections to run")
		listFlag       = flag.Bool("list", false, "list available company profiles and exit")
		clearCacheFlag = flag.Bool("clear-cache", false, "clear the fetch cache before running")
		daemonFlag     = flag.Bool("daemon", false, "run as a daemon with periodic regeneration")
	)
	flag.Parse()

	c := bootstrap.NewContainer()
	c.MustInit()

	if err := run(c, *companyFlag, *sectionsFlag, *listFlag, *clearCacheFlag, *daemonFlag); err != nil {
		c.Log.Errorf("run failed: %v", err)
		c.Shutdown()
		os.Exit(1)
	}

	c.Shutdown()
}

func run(c *bootstrap.Container, companyName, sectionList string, list, clearCache, daemon bool) error {
	ctx := c.Context

	if clearCache {
		if c.FetchCache == nil {
			c.Log.Warn("fetch cache not configured, nothing to clear")
		} else {
			removed, err := c.FetchCache.Clear(ctx)
			if err != nil {
				return err
			}
			c.Log.Infow("fetch cache cleared", "entries", removed)
		}
	}

	if list {
		names, err := c.Reader.ListAvailable()
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	}

	if daemon {
		return runDaemon(c)
	}

	if companyName == "" {
		if clearCache {
			return nil
		}
		flag.Usage()
		return fmt.Errorf("no company given: use -company, -list or -daemon")
	}

	sections, err := parseSections(sectionList)
	if err != nil {
		return err
	}

	result, err := c.Report.Generate(ctx, companyName, sections)
	if err != nil {
		return err
	}

	fmt.Printf("Report for %s written to %s\n", result.CompanyName, result.ReportPath)
	return nil
}

func runDaemon(c *bootstrap.Container) error {
	if err := c.StartBackground(); err != nil {
		return err
	}

	log := logger.Get()
	log.Info("Daemon started, waiting for shutdown signal...")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infow("Shutdown signal received", "signal", sig)
	case <-c.Context.Done():
	}
	return nil
}

func parseSections(list string) ([]domain.Section, error) {
	if strings.TrimSpace(list) == "" {
		return nil, nil
	}

	var names []string
	for _, name := range strings.Split(list, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return domain.ParseSections(names)
}
