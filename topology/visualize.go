package topology

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"
)

const graphName = `topology`

// Visualize renders the layout as a graphviz DOT document
func (l *Layout) Visualize() (string, error) {
	g := gographviz.NewGraph()
	if err := g.SetName(graphName); err != nil {
		return "", errors.WithMessage(err, "set graph name")
	}
	if err := g.SetDir(true); err != nil {
		return "", errors.WithMessage(err, "set graph direction")
	}
	if err := g.AddAttr(graphName, `rankdir`, `LR`); err != nil {
		return "", errors.WithMessage(err, "set graph rankdir")
	}

	for _, exchange := range l.exchanges {
		err := g.AddNode(graphName, exchangeNode(exchange), map[string]string{
			`label`:     strconv.Quote(fmt.Sprintf("%s\n(%s)", exchange.Name, exchange.Type)),
			`shape`:     `box`,
			`style`:     `"rounded,filled"`,
			`fillcolor`: `darkseagreen1`,
			`fontsize`:  `11`,
		})
		if err != nil {
			return "", errors.WithMessagef(err, "add exchange '%s'", exchange.Name)
		}
	}

	for _, queue := range l.queues {
		err := g.AddNode(graphName, queueNode(queue), map[string]string{
			`label`:    strconv.Quote(queue.Name),
			`shape`:    `cylinder`,
			`fontsize`: `11`,
		})
		if err != nil {
			return "", errors.WithMessagef(err, "add queue '%s'", queue.Name)
		}
	}

	for _, binding := range l.exchangeBindings {
		err := g.AddEdge(exchangeNode(binding.Source), exchangeNode(binding.Destination), true, edgeAttrs(binding.RoutingKey))
		if err != nil {
			return "", errors.WithMessagef(err, "add binding '%s' -> '%s'", binding.Source.Name, binding.Destination.Name)
		}
	}

	for _, binding := range l.queueBindings {
		err := g.AddEdge(exchangeNode(binding.Source), queueNode(binding.Destination), true, edgeAttrs(binding.RoutingKey))
		if err != nil {
			return "", errors.WithMessagef(err, "add binding '%s' -> '%s'", binding.Source.Name, binding.Destination.Name)
		}
	}

	graph, err := g.WriteAst()
	if err != nil {
		return "", errors.WithMessage(err, "write graph")
	}
	return graph.String(), nil
}

func exchangeNode(e Exchange) string {
	return fmt.Sprintf(`exchange_%d`, e.Id)
}

func queueNode(q Queue) string {
	return fmt.Sprintf(`queue_%d`, q.Id)
}

func edgeAttrs(routingKey string) map[string]string {
	if routingKey == "" {
		return nil
	}
	return map[string]string{
		`label`: strconv.Quote(routingKey),
	}
}
