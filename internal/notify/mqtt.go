package notify

import (
	"context"
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/luminode/caster/internal/model"
)

// MQTTSink publishes scheduler events on each device's command topic. Every
// paired device subscribes to tv/<hardware_id>/commands.
type MQTTSink struct {
	client mqtt.Client
}

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Info().Msg("connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Error().Err(err).Msg("MQTT connection lost")
}

func NewMQTTSink(brokerURL, clientID string) (*MQTTSink, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return &MQTTSink{client: client}, nil
}

type playlistChangedMessage struct {
	Type string             `json:"type"`
	Data model.ChangeRecord `json:"data"`
}

type deviceCommandMessage struct {
	Type string              `json:"type"`
	Data model.DeviceCommand `json:"data"`
}

func (s *MQTTSink) PlaylistChanged(_ context.Context, change model.ChangeRecord) error {
	if change.DeviceHardwareID == nil {
		// device was never paired, nothing to push to
		return nil
	}
	payload, err := json.Marshal(playlistChangedMessage{Type: "playlist_changed", Data: change})
	if err != nil {
		return err
	}
	return s.publish(*change.DeviceHardwareID, payload)
}

func (s *MQTTSink) DispatchAction(_ context.Context, cmd model.DeviceCommand) error {
	if cmd.HardwareID == "" {
		return fmt.Errorf("device %d has no hardware id, cannot dispatch %s", cmd.DeviceID, cmd.Action)
	}
	payload, err := json.Marshal(deviceCommandMessage{Type: string(cmd.Action), Data: cmd})
	if err != nil {
		return err
	}
	return s.publish(cmd.HardwareID, payload)
}

func (s *MQTTSink) publish(hardwareID string, payload []byte) error {
	topic := fmt.Sprintf("tv/%s/commands", hardwareID)
	token := s.client.Publish(topic, 1, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}
	return nil
}

// Close disconnects from the broker.
func (s *MQTTSink) Close() {
	s.client.Disconnect(250)
}
