// Package logger configures the logrus standard logger and provides the
// writer for access logs.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Conf configures where a logger writes to. If Dir is set the log is
// written to a file in it; with StdErr it is additionally written to
// stderr. Without Dir logs always go to stderr.
type Conf struct {
	Dir    string `yaml:"dir"`
	StdErr bool   `yaml:"stderr"`
}

// InternalConf configures the application log
type InternalConf struct {
	Conf  `yaml:",inline"`
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
	// Smart duplicates errors to a separate file in Smart.Dir
	Smart SmartConf `yaml:"smart"`
}

// SmartConf configures error duplication
type SmartConf struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

// Init configures the logrus standard logger; component names the log file
func Init(component string, conf InternalConf) {
	out, err := writer(conf.Conf, component+".log")
	if err != nil {
		log.WithError(err).Error("could not open log file, logging to stderr")
		out = os.Stderr
	}
	log.SetOutput(out)
	if conf.JSON {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	level, err := log.ParseLevel(strings.ToLower(conf.Level))
	if err != nil {
		level = log.InfoLevel
		log.WithField("level", conf.Level).Warn("unknown log level, using info")
	}
	log.SetLevel(level)

	if conf.Smart.Enabled {
		dir := conf.Smart.Dir
		if dir == "" {
			dir = conf.Dir
		}
		f, err := openLogFile(dir, component+".errors.log")
		if err != nil {
			log.WithError(err).Error("could not open error log file")
			return
		}
		log.AddHook(&errorHook{
			w:         f,
			formatter: log.StandardLogger().Formatter,
		})
	}
}

// AccessLogWriter returns the writer for access logs
func AccessLogWriter(component string, conf Conf) io.Writer {
	w, err := writer(conf, component+".access.log")
	if err != nil {
		log.WithError(err).Error("could not open access log file, logging to stderr")
		return os.Stderr
	}
	return w
}

func writer(conf Conf, filename string) (io.Writer, error) {
	if conf.Dir == "" {
		return os.Stderr, nil
	}
	f, err := openLogFile(conf.Dir, filename)
	if err != nil {
		return nil, err
	}
	if conf.StdErr {
		return io.MultiWriter(f, os.Stderr), nil
	}
	return f, nil
}

func openLogFile(dir, filename string) (*os.File, error) {
	return os.OpenFile(filepath.Join(dir, filename), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o640)
}

type errorHook struct {
	w         io.Writer
	formatter log.Formatter
}

// Levels implements the logrus.Hook interface
func (*errorHook) Levels() []log.Level {
	return []log.Level{log.PanicLevel, log.FatalLevel, log.ErrorLevel}
}

// Fire implements the logrus.Hook interface
func (h *errorHook) Fire(entry *log.Entry) error {
	data, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.w.Write(data)
	return err
}
