package main

import (
	"context"
	"flag"
	"os"

	easy "git.fiblab.net/utils/logrus-easy-formatter"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"streetCA/config"
	"streetCA/element"
	"streetCA/recorder"
	"streetCA/simulator"
)

var (
	// 配置文件路径
	configPath = flag.String("config", "config/config.yaml", "config file path")

	// log
	logLevels = map[string]logrus.Level{
		"trace": logrus.TraceLevel,
		"debug": logrus.DebugLevel,
		"info":  logrus.InfoLevel,
		"warn":  logrus.WarnLevel,
		"error": logrus.ErrorLevel,
		"off":   logrus.PanicLevel,
	}
	logLevel = flag.String("log.level", "info", "日志级别（可选项：trace debug info warn error off）")

	log = logrus.WithField("module", "streetCA")
)

func main() {
	flag.Parse()
	logrus.SetFormatter(&easy.Formatter{
		TimestampFormat: "2006-01-02 15:04:05.0000",
		LogFormat:       "[%module%] [%time%] [%lvl%] %msg%\n",
	})
	if level, ok := logLevels[*logLevel]; ok {
		logrus.SetLevel(level)
	} else {
		log.Panicf("log.level must be one of %v", logLevels)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Panicf("config load err: %v", err)
	}

	street, err := element.NewStreet(cfg.Street)
	if err != nil {
		log.Panicf("street init err: %v", err)
	}
	pipeline, err := simulator.NewPipeline(cfg.Rules)
	if err != nil {
		log.Panicf("pipeline init err: %v", err)
	}

	runner := simulator.NewRunner(street, pipeline, cfg.Simulation.MaxSteps)
	runner.SetLogInterval(cfg.Simulation.LogInterval)
	if err := runner.Run(); err != nil {
		log.Panicf("simulation err: %v", err)
	}

	speeds := runner.MetricAverageRelativeSpeed()
	throughputs := runner.MetricCarThroughput()
	counts := make([]float64, len(throughputs))
	for i, c := range throughputs {
		counts[i] = float64(c)
	}
	log.Infof("mean relative speed: %.4f, mean throughput: %.2f cars",
		stat.Mean(speeds, nil), stat.Mean(counts, nil))

	if cfg.Output.MetricsCSV != "" {
		if err := recorder.InitMetricsCSV(cfg.Output.MetricsCSV); err != nil {
			log.Panicf("metrics csv err: %v", err)
		}
		if err := recorder.WriteMetricsCSV(cfg.Output.MetricsCSV, runner); err != nil {
			log.Panicf("metrics csv err: %v", err)
		}
		log.Infof("metrics written to %s", cfg.Output.MetricsCSV)
	}

	if cfg.Output.ArtifactFile != "" {
		data, err := recorder.Serialize(runner)
		if err != nil {
			log.Panicf("serialize err: %v", err)
		}
		if err := os.WriteFile(cfg.Output.ArtifactFile, data, 0644); err != nil {
			log.Panicf("artifact write err: %v", err)
		}
		log.Infof("artifact written to %s (%d bytes)", cfg.Output.ArtifactFile, len(data))
	}

	if cfg.Output.StorePath != "" {
		store, err := recorder.OpenStore(cfg.Output.StorePath)
		if err != nil {
			log.Panicf("store open err: %v", err)
		}
		defer store.Close()

		id, err := store.SaveRun(context.Background(), runner)
		if err != nil {
			log.Panicf("store save err: %v", err)
		}
		log.Infof("run archived as %s in %s", id, cfg.Output.StorePath)
	}
}
