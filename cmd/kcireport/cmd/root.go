package cmd

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"

	kernelci "github.com/BayLibre/kernelci-backend/pkg"
	kcimodel "github.com/BayLibre/kernelci-backend/pkg/model"
	"github.com/BayLibre/kernelci-backend/pkg/reports/plaintext"
	"github.com/spf13/cobra"
)

var (
	app        = "kcireport"
	appVersion = "0.0.0"
	rootCmd    = &cobra.Command{
		Use:     app,
		Short:   "Render and serve kernel test result reports",
		Example: "kcireport results.json\nkcireport --input results.json --output report.txt --chart report.svg",
		RunE:    runner,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(version string) {
	appVersion = version
	rootCmd.Version = version
	rootCmd.Long = fmt.Sprintf(`kcireport - Render and serve kernel test result reports

	Version: %s`, version)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var output, input, service, chartFile, lab string
var jsonOut bool
var api int

func init() {
	rootCmd.Flags().BoolVarP(&jsonOut, "json", "j", false, "print the parsed report context as JSON instead of rendering it")
	rootCmd.Flags().StringVarP(&input, "input", "i", "results.json", `read the report context from an input JSON FILE`)
	rootCmd.Flag("input").NoOptDefVal = "results.json"
	rootCmd.Flags().StringVarP(&output, "output", "o", "report.txt", `write the rendered report into an output FILE`)
	rootCmd.Flag("output").NoOptDefVal = "report.txt"
	rootCmd.Flags().StringVarP(&chartFile, "chart", "c", "report.svg", `also write an SVG chart of the aggregate results into FILE`)
	rootCmd.Flag("chart").NoOptDefVal = "report.svg"
	rootCmd.Flags().StringVarP(&lab, "lab", "l", "", "only report the results submitted by the given lab")
	rootCmd.Flags().IntVar(&api, "api", 12345, "run as an API service on the specified port")
	rootCmd.Flags().StringVarP(&service, "service", "s", kernelci.KernelCIConfigPath, fmt.Sprintf("run %s as a service", app))
	rootCmd.Flag("service").NoOptDefVal = kernelci.KernelCIConfigPath
}

func runner(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && !cmd.Flag("service").Changed && !cmd.Flag("api").Changed && !cmd.Flag("input").Changed {
		return cmd.Usage()
	}

	if cmd.Flag("service").Changed { // run as a scheduled service with API
		kernelci.Service(service)
		return nil
	}

	if cmd.Flag("api").Changed { // run as simple API service
		kernelci.ServeAPI(api)
		return nil
	}

	path := input
	if len(args) > 0 {
		path = args[0]
	}
	ctx, err := loadReportContext(path)
	if err != nil {
		return err
	}
	if lab != "" {
		ctx.TestSuites = filterByLab(ctx.TestSuites, lab)
	}

	if jsonOut {
		jsonData, err := json.MarshalIndent(ctx, "", "  ")
		if err != nil {
			return err
		}
		fmt.Printf("%s\n", string(jsonData))
		return nil
	}

	report, err := plaintext.Render(ctx)
	if err != nil {
		return err
	}
	if cmd.Flag("output").Changed {
		if err := ioutil.WriteFile(output, []byte(report), 0644); err != nil {
			return err
		}
	} else {
		fmt.Print(report)
	}

	if cmd.Flag("chart").Changed {
		svg, err := plaintext.ResultsChart(ctx)
		if err != nil {
			return err
		}
		if err := ioutil.WriteFile(chartFile, []byte(svg), 0644); err != nil {
			return err
		}
	}

	return nil
}

func loadReportContext(path string) (ctx kcimodel.ReportContext, err error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return ctx, err
	}
	err = json.Unmarshal(data, &ctx)
	return ctx, err
}

func filterByLab(suites []kcimodel.TestSuite, labName string) (filtered []kcimodel.TestSuite) {
	for _, s := range suites {
		if s.LabName == labName {
			filtered = append(filtered, s)
		}
	}
	return
}
