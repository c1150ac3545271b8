package ports

// CyclePublisher difunde el resultado de cada ciclo a los suscriptores
// (websocket, consola). No debe bloquear al loop.
type CyclePublisher interface {
	Publish(event any)
}
