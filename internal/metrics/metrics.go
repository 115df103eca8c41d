// Package metrics exposes controller state as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/room-controller/internal/logic"
)

const metricPrefix = "room_controller_"

// Metrics bundles the controller metrics and the registry they live in.
type Metrics struct {
	reg *prometheus.Registry

	OutputPWM     *prometheus.GaugeVec
	SensorValue   *prometheus.GaugeVec
	State         *prometheus.GaugeVec
	ManualMode    prometheus.Gauge
	MQTTConnected prometheus.Gauge
	Transitions   *prometheus.CounterVec
	HTTPRequests  *prometheus.CounterVec
}

// New constructs the metrics on a private registry, alongside the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		OutputPWM: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "output_pwm",
				Help: "Actuator duty cycle (0-255) by channel",
			},
			[]string{"channel"},
		),
		SensorValue: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "sensor_value",
				Help: "Latest sensor reading (0-1023; btn is 0 or 1)",
			},
			[]string{"sensor"},
		),
		State: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: metricPrefix + "state",
				Help: "1 for the current controller state, 0 otherwise",
			},
			[]string{"state"},
		),
		ManualMode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "manual_mode",
			Help: "1 while manual override is active",
		}),
		MQTTConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: metricPrefix + "mqtt_connected",
			Help: "1 while the MQTT broker connection is up",
		}),
		Transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "transitions_total",
				Help: "Total state transitions by source and destination",
			},
			[]string{"from", "to"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total status server requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}

	m.reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.OutputPWM,
		m.SensorValue,
		m.State,
		m.ManualMode,
		m.MQTTConnected,
		m.Transitions,
		m.HTTPRequests,
	)
	return m
}

// Observe records the model's current sensors, outputs, state and mode.
func (m *Metrics) Observe(model logic.Model) {
	m.OutputPWM.WithLabelValues("win").Set(float64(model.Outputs.Win))
	m.OutputPWM.WithLabelValues("lamp").Set(float64(model.Outputs.Lamp))
	m.OutputPWM.WithLabelValues("humid").Set(float64(model.Outputs.Humid))

	m.SensorValue.WithLabelValues("l_int").Set(float64(model.Sensors.LInt))
	m.SensorValue.WithLabelValues("l_ext").Set(float64(model.Sensors.LExt))
	m.SensorValue.WithLabelValues("hum").Set(float64(model.Sensors.Hum))
	m.SensorValue.WithLabelValues("btn").Set(boolValue(model.Sensors.BtnPressed))

	for _, s := range logic.States {
		m.State.WithLabelValues(string(s)).Set(boolValue(s == model.State))
	}
	m.ManualMode.Set(boolValue(model.Mode == logic.ModeManual))
}

// ObserveEvents counts the transitions among events.
func (m *Metrics) ObserveEvents(events []logic.Event) {
	for _, e := range events {
		if e.Type == logic.EventTransition {
			m.Transitions.WithLabelValues(string(e.From), string(e.State)).Inc()
		}
	}
}

// SetMQTTConnected records the broker connection state.
func (m *Metrics) SetMQTTConnected(connected bool) {
	m.MQTTConnected.Set(boolValue(connected))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Instrument counts requests served by h under route.
func (m *Metrics) Instrument(route string, h http.Handler) http.Handler {
	counter := m.HTTPRequests.MustCurryWith(prometheus.Labels{"route": route})
	return promhttp.InstrumentHandlerCounter(counter, h)
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
