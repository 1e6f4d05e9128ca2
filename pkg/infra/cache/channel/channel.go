package channel

type Channel string

const BotGateEventsChannel Channel = "botgate:events"
